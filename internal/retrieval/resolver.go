// Package retrieval turns a start parameter or a pasted link into a
// delivered file, running the password challenge for protected files.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/auth"
	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/linkcodec"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/session"
)

// Store is the part of the record store the resolver reads and writes.
type Store interface {
	GetFile(ctx context.Context, id int64) (*models.File, error)
	GetPassword(ctx context.Context, id int64) (string, error)
	RegisterDownload(ctx context.Context, file *models.File, downloader *models.UserProfile) error
}

// Sender re-sends a stored file reference to a chat.
type Sender interface {
	SendMedia(ctx context.Context, chatID int64, kind models.MediaKind, fileRef, caption string) error
}

type Outcome int

const (
	// OutcomeWelcome means the input carried no file id.
	OutcomeWelcome Outcome = iota
	OutcomeNotFound
	// OutcomeChallenge means a password is now expected from the chat.
	OutcomeChallenge
	OutcomeWrongPassword
	OutcomeTooManyAttempts
	OutcomeDelivered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWelcome:
		return "welcome"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeChallenge:
		return "challenge"
	case OutcomeWrongPassword:
		return "wrong_password"
	case OutcomeTooManyAttempts:
		return "too_many_attempts"
	case OutcomeDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	// File is set once the record was found.
	File *models.File
	// AttemptsLeft is set with OutcomeWrongPassword.
	AttemptsLeft int
}

type Resolver struct {
	store       Store
	sender      Sender
	caption     func(*models.File) string
	maxAttempts int
	log         logging.Logger
}

// NewResolver builds a resolver. caption renders the text sent along with a
// delivered file; maxAttempts below 1 is treated as 1.
func NewResolver(store Store, sender Sender, caption func(*models.File) string, maxAttempts int, log logging.Logger) *Resolver {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if caption == nil {
		caption = func(f *models.File) string { return f.Name }
	}
	return &Resolver{
		store:       store,
		sender:      sender,
		caption:     caption,
		maxAttempts: maxAttempts,
		log:         log.With("module", "retrieval"),
	}
}

// Resolve handles a start parameter or free text containing file_<digits>.
// A missing record leaves every counter untouched. A protected file is only
// delivered when the inline password matches; otherwise a challenge is
// opened on the slot.
func (r *Resolver) Resolve(ctx context.Context, slot *session.Slot, downloader *models.UserProfile, raw string) (*Result, error) {
	p := linkcodec.Decode(raw)
	if !p.HasFile {
		return &Result{Outcome: OutcomeWelcome}, nil
	}

	file, err := r.store.GetFile(ctx, p.FileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, fmt.Errorf("error fetching file: %w", err)
	}

	if file.Protected {
		if p.Password == "" {
			slot.Set(&session.Challenge{FileID: file.ID})
			return &Result{Outcome: OutcomeChallenge, File: file}, nil
		}
		if !auth.PasswordMatches(file.Password, p.Password) {
			r.log.Info(ctx, "wrong inline password", "file_id", file.ID, "chat_id", slot.ChatID())
			return r.wrongPassword(slot, &session.Challenge{FileID: file.ID}, file), nil
		}
	}

	slot.Clear()
	return r.deliver(ctx, slot.ChatID(), file, downloader)
}

// SubmitPassword checks text, verbatim, against the file the open challenge
// waits for.
// The challenge stays open while attempts remain and is cleared on every
// other exit.
func (r *Resolver) SubmitPassword(ctx context.Context, slot *session.Slot, downloader *models.UserProfile, text string) (*Result, error) {
	c := slot.Challenge()
	if c == nil {
		return nil, common.ErrNoSession
	}

	stored, err := r.store.GetPassword(ctx, c.FileID)
	if err != nil {
		slot.Clear()
		if errors.Is(err, common.ErrorNotFound) {
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, fmt.Errorf("error fetching password: %w", err)
	}

	if stored != "" && !auth.PasswordMatches(stored, text) {
		r.log.Info(ctx, "wrong password", "file_id", c.FileID, "chat_id", slot.ChatID(), "attempt", c.Attempts+1)
		return r.wrongPassword(slot, c, nil), nil
	}

	slot.Clear()

	file, err := r.store.GetFile(ctx, c.FileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, fmt.Errorf("error fetching file: %w", err)
	}
	return r.deliver(ctx, slot.ChatID(), file, downloader)
}

func (r *Resolver) wrongPassword(slot *session.Slot, c *session.Challenge, file *models.File) *Result {
	c.Attempts++
	if c.Attempts >= r.maxAttempts {
		slot.Clear()
		return &Result{Outcome: OutcomeTooManyAttempts, File: file}
	}
	slot.Set(c)
	return &Result{Outcome: OutcomeWrongPassword, File: file, AttemptsLeft: r.maxAttempts - c.Attempts}
}

func (r *Resolver) deliver(ctx context.Context, chatID int64, file *models.File, downloader *models.UserProfile) (*Result, error) {
	if err := r.store.RegisterDownload(ctx, file, downloader); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Result{Outcome: OutcomeNotFound}, nil
		}
		return nil, fmt.Errorf("error registering download: %w", err)
	}

	if err := r.send(ctx, chatID, file); err != nil {
		return nil, err
	}

	r.log.Info(ctx, "file delivered", "file_id", file.ID, "chat_id", chatID, "kind", string(file.Kind))
	return &Result{Outcome: OutcomeDelivered, File: file}, nil
}

// send tries the kind-specific send first and a plain document once after that.
func (r *Resolver) send(ctx context.Context, chatID int64, file *models.File) error {
	caption := r.caption(file)

	err := r.sender.SendMedia(ctx, chatID, file.Kind, file.FileRef, caption)
	if err == nil {
		return nil
	}

	r.log.Warn(ctx, "typed send failed, retrying as document", "file_id", file.ID, "kind", string(file.Kind), "error", err)

	if err := r.sender.SendMedia(ctx, chatID, models.MediaDocument, file.FileRef, caption); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}
	return nil
}
