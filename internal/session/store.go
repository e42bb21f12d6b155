// Package session keeps the per-chat conversation slot. A chat holds at most
// one open state at a time, either an upload in progress or a password
// challenge, and all work on a chat is serialized through its lock.
package session

import (
	"sync"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// Step is the position of an upload session.
type Step int

const (
	StepAwaitingDescription Step = iota + 1
	StepAwaitingPassword
)

func (s Step) String() string {
	switch s {
	case StepAwaitingDescription:
		return "awaiting_description"
	case StepAwaitingPassword:
		return "awaiting_password"
	default:
		return "unknown"
	}
}

// State is implemented by Upload and Challenge.
type State interface {
	isState()
}

// Upload is an upload session between receiving media and committing it.
type Upload struct {
	FileRef string
	Name    string
	Size    int64
	Kind    models.MediaKind
	Step    Step

	Description    string
	HasDescription bool
}

// Challenge waits for the password of a protected file.
type Challenge struct {
	FileID int64
	// Attempts counts wrong passwords already given.
	Attempts int
}

func (*Upload) isState()    {}
func (*Challenge) isState() {}

type entry struct {
	mu    sync.Mutex
	refs  int
	state State
}

// Store maps chat ids to slots. The zero value is not usable; use NewStore.
type Store struct {
	mu    sync.Mutex
	chats map[int64]*entry
}

func NewStore() *Store {
	return &Store{chats: make(map[int64]*entry)}
}

// Lock blocks until the caller owns the slot of chatID. The slot must be
// released with Unlock.
func (s *Store) Lock(chatID int64) *Slot {
	s.mu.Lock()
	e, ok := s.chats[chatID]
	if !ok {
		e = &entry{}
		s.chats[chatID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return &Slot{store: s, chatID: chatID, e: e}
}

// Open returns how many chats currently hold a state.
func (s *Store) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.chats {
		if e.state != nil {
			n++
		}
	}
	return n
}

// Slot is exclusive access to one chat's state.
type Slot struct {
	store  *Store
	chatID int64
	e      *entry
	done   bool
}

func (sl *Slot) ChatID() int64 { return sl.chatID }

func (sl *Slot) State() State {
	sl.store.mu.Lock()
	defer sl.store.mu.Unlock()
	return sl.e.state
}

// Upload returns the open upload session, or nil.
func (sl *Slot) Upload() *Upload {
	u, _ := sl.State().(*Upload)
	return u
}

// Challenge returns the open password challenge, or nil.
func (sl *Slot) Challenge() *Challenge {
	c, _ := sl.State().(*Challenge)
	return c
}

// Set replaces whatever the chat held.
func (sl *Slot) Set(st State) {
	sl.store.mu.Lock()
	sl.e.state = st
	sl.store.mu.Unlock()
}

func (sl *Slot) Clear() {
	sl.Set(nil)
}

// Unlock releases the slot. Chats with no state and no waiters are forgotten.
// Calling Unlock twice is a no-op.
func (sl *Slot) Unlock() {
	if sl.done {
		return
	}
	sl.done = true

	sl.store.mu.Lock()
	sl.e.refs--
	if sl.e.refs == 0 && sl.e.state == nil {
		delete(sl.store.chats, sl.chatID)
	}
	sl.store.mu.Unlock()

	sl.e.mu.Unlock()
}
