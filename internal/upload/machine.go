// Package upload drives the two-step conversation that turns received media
// into a committed file record and a shareable link.
package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/linkcodec"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/session"
)

// Store is the part of the record store the machine writes to.
type Store interface {
	CreateFile(ctx context.Context, file *models.File, owner models.UserProfile) (int64, error)
}

// Media describes an artifact as received from the gateway.
type Media struct {
	FileRef string
	Name    string
	Size    int64
	Kind    models.MediaKind
}

// Input is one user reply while a session is open. Skip is set for the
// skip command; Text is ignored then.
type Input struct {
	Text string
	Skip bool
}

// Result tells the caller what to show next. When Committed is false the
// session moved to Next and is still open.
type Result struct {
	Next      session.Step
	Committed bool
	File      *models.File
	Link      string
}

type Machine struct {
	store       Store
	botUsername string
	log         logging.Logger
	now         func() time.Time
}

func NewMachine(store Store, botUsername string, log logging.Logger) *Machine {
	return &Machine{
		store:       store,
		botUsername: botUsername,
		log:         log.With("module", "upload"),
		now:         time.Now,
	}
}

// Begin opens an upload session on the slot, replacing anything it held.
func (m *Machine) Begin(slot *session.Slot, media Media) *session.Upload {
	name := strings.TrimSpace(media.Name)
	if name == "" {
		name = fmt.Sprintf("%s_%d.%s", media.Kind, m.now().Unix(), media.Kind.Extension())
	}

	u := &session.Upload{
		FileRef: media.FileRef,
		Name:    name,
		Size:    media.Size,
		Kind:    media.Kind,
		Step:    session.StepAwaitingDescription,
	}
	slot.Set(u)
	return u
}

// Advance feeds one reply into the open upload session. The second reply
// commits the record; the slot is cleared whether the commit succeeds or not.
func (m *Machine) Advance(ctx context.Context, slot *session.Slot, owner models.UserProfile, in Input) (*Result, error) {
	u := slot.Upload()
	if u == nil {
		return nil, common.ErrNoSession
	}

	text := strings.TrimSpace(in.Text)

	switch u.Step {
	case session.StepAwaitingDescription:
		if !in.Skip && text != "" {
			u.Description = text
			u.HasDescription = true
		}
		u.Step = session.StepAwaitingPassword
		slot.Set(u)
		return &Result{Next: session.StepAwaitingPassword}, nil

	case session.StepAwaitingPassword:
		slot.Clear()

		// the password is kept verbatim; blank input means none
		password := ""
		if !in.Skip && text != "" {
			password = in.Text
		}
		return m.commit(ctx, u, owner, password)

	default:
		slot.Clear()
		m.log.Error(ctx, "upload session in unknown step", "chat_id", slot.ChatID(), "step", u.Step.String())
		return nil, common.ErrUnexpectedInput
	}
}

func (m *Machine) commit(ctx context.Context, u *session.Upload, owner models.UserProfile, password string) (*Result, error) {
	file := models.NewFile(u.FileRef, u.Name, u.Size, u.Kind, owner.ID, u.Description, password)

	id, err := m.store.CreateFile(ctx, file, owner)
	if err != nil {
		return nil, fmt.Errorf("error committing upload: %w", err)
	}
	file.ID = id

	if !linkcodec.RoundTripSafe(password) {
		m.log.Warn(ctx, "password will not survive the deep link", "file_id", id)
	}

	link := linkcodec.DeepLink(m.botUsername, id, password)
	m.log.Info(ctx, "file committed", "file_id", id, "owner_id", owner.ID, "kind", string(u.Kind), "protected", file.Protected)

	return &Result{Committed: true, File: file, Link: link}, nil
}
