package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	nextID  int64
	err     error
	created []*models.File
	owners  []models.UserProfile
}

func (f *fakeStore) CreateFile(_ context.Context, file *models.File, owner models.UserProfile) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	file.OwnerID = owner.ID
	f.created = append(f.created, file)
	f.owners = append(f.owners, owner)
	return f.nextID, nil
}

func newMachine(store Store) *Machine {
	m := NewMachine(store, "linkdrop_bot", logging.Nop())
	m.now = func() time.Time { return time.Unix(1700000000, 0) }
	return m
}

var owner = models.UserProfile{ID: 7, UserName: "ann"}

func TestBegin_FallbackName(t *testing.T) {
	m := newMachine(&fakeStore{})
	slot := session.NewStore().Lock(1)
	defer slot.Unlock()

	u := m.Begin(slot, Media{FileRef: "ref", Size: 10, Kind: models.MediaPhoto})
	assert.Equal(t, "photo_1700000000.jpg", u.Name)
	assert.Equal(t, session.StepAwaitingDescription, u.Step)
	assert.Same(t, u, slot.Upload())

	u = m.Begin(slot, Media{FileRef: "ref2", Name: "report.pdf", Kind: models.MediaDocument})
	assert.Equal(t, "report.pdf", u.Name)
	assert.Equal(t, "ref2", slot.Upload().FileRef)
}

func TestAdvance_SkipTwice(t *testing.T) {
	store := &fakeStore{}
	m := newMachine(store)
	slot := session.NewStore().Lock(1)
	defer slot.Unlock()

	m.Begin(slot, Media{FileRef: "ref", Name: "a.pdf", Size: 100, Kind: models.MediaDocument})

	res, err := m.Advance(context.Background(), slot, owner, Input{Skip: true})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Equal(t, session.StepAwaitingPassword, res.Next)
	require.NotNil(t, slot.Upload())

	res, err = m.Advance(context.Background(), slot, owner, Input{Skip: true})
	require.NoError(t, err)
	require.True(t, res.Committed)
	assert.Nil(t, slot.State())

	assert.Equal(t, "https://t.me/linkdrop_bot?start=file_1", res.Link)
	assert.False(t, res.File.Protected)
	assert.Empty(t, res.File.Description)
	assert.Equal(t, int64(7), res.File.OwnerID)
	assert.Equal(t, []models.UserProfile{owner}, store.owners)
}

func TestAdvance_DescriptionAndPassword(t *testing.T) {
	store := &fakeStore{}
	m := newMachine(store)
	slot := session.NewStore().Lock(1)
	defer slot.Unlock()

	m.Begin(slot, Media{FileRef: "ref", Name: "a.pdf", Size: 100, Kind: models.MediaDocument})

	_, err := m.Advance(context.Background(), slot, owner, Input{Text: "Hello"})
	require.NoError(t, err)
	assert.True(t, slot.Upload().HasDescription)

	res, err := m.Advance(context.Background(), slot, owner, Input{Text: "secret1"})
	require.NoError(t, err)
	require.True(t, res.Committed)

	assert.Equal(t, "Hello", res.File.Description)
	assert.Equal(t, "secret1", res.File.Password)
	assert.True(t, res.File.Protected)
	assert.Equal(t, "https://t.me/linkdrop_bot?start=file_1&pwd_secret1", res.Link)
	assert.Nil(t, slot.State())
}

func TestAdvance_CommitErrorClearsSlot(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	m := newMachine(store)
	slot := session.NewStore().Lock(1)
	defer slot.Unlock()

	m.Begin(slot, Media{FileRef: "ref", Kind: models.MediaVoice})
	_, err := m.Advance(context.Background(), slot, owner, Input{Skip: true})
	require.NoError(t, err)

	_, err = m.Advance(context.Background(), slot, owner, Input{Text: "pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, slot.State())
	assert.Empty(t, store.created)
}

func TestAdvance_NoSession(t *testing.T) {
	m := newMachine(&fakeStore{})
	slot := session.NewStore().Lock(1)
	defer slot.Unlock()

	_, err := m.Advance(context.Background(), slot, owner, Input{Text: "hi"})
	assert.ErrorIs(t, err, common.ErrNoSession)

	slot.Set(&session.Challenge{FileID: 1})
	_, err = m.Advance(context.Background(), slot, owner, Input{Text: "hi"})
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.NotNil(t, slot.Challenge())
}

func TestAdvance_UnknownStepClearsSlot(t *testing.T) {
	m := newMachine(&fakeStore{})
	slot := session.NewStore().Lock(1)
	defer slot.Unlock()

	slot.Set(&session.Upload{FileRef: "ref"})
	_, err := m.Advance(context.Background(), slot, owner, Input{Text: "hi"})
	assert.ErrorIs(t, err, common.ErrUnexpectedInput)
	assert.Nil(t, slot.State())
}

func TestAdvance_PasswordKeptVerbatim(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		wantPassword  string
		wantProtected bool
	}{
		{"surrounding spaces kept", " secret1 ", " secret1 ", true},
		{"blank means none", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(&fakeStore{})
			slot := session.NewStore().Lock(1)
			defer slot.Unlock()

			m.Begin(slot, Media{FileRef: "ref", Name: "a.pdf", Kind: models.MediaDocument})
			_, err := m.Advance(context.Background(), slot, owner, Input{Text: "  Hello  "})
			require.NoError(t, err)

			res, err := m.Advance(context.Background(), slot, owner, Input{Text: tt.reply})
			require.NoError(t, err)
			require.True(t, res.Committed)
			assert.Equal(t, "Hello", res.File.Description)
			assert.Equal(t, tt.wantPassword, res.File.Password)
			assert.Equal(t, tt.wantProtected, res.File.Protected)
		})
	}
}
