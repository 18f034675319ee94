package storage

import (
	"agora/domain"
	"agora/errors"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdentityRepository_Put_Get_And_Handles(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewIdentityRepository(openTestDB(t), slog.Default())

	alice := domain.Identity{ID: "u1", Handle: "Alice", DisplayName: "Alice A."}
	req.NoError(repository.Put(ctx, alice))

	found, err := repository.FindByHandle(ctx, "alice")
	req.NoError(err)
	req.Equal(alice, found)

	// When the handle changes the old one is released
	alice.Handle = "alicia"
	req.NoError(repository.Put(ctx, alice))
	_, err = repository.FindByHandle(ctx, "alice")
	req.ErrorIs(err, errors.ErrIdentityNotFound)
	found, err = repository.Get(ctx, "u1")
	req.NoError(err)
	req.Equal("alicia", found.Handle)

	_, err = repository.Get(ctx, "nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestIdentityRepository_Blocks(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewIdentityRepository(openTestDB(t), slog.Default())

	req.NoError(repository.Block(ctx, "u1", "u2", time.Now()))
	req.NoError(repository.Block(ctx, "u1", "u3", time.Now()))

	blocked, err := repository.BlockedBy(ctx, "u1")
	req.NoError(err)
	req.ElementsMatch([]string{"u2", "u3"}, blocked)

	blocked, err = repository.BlockedBy(ctx, "u2")
	req.NoError(err)
	req.Empty(blocked)

	req.NoError(repository.Unblock(ctx, "u1", "u2"))
	blocked, err = repository.BlockedBy(ctx, "u1")
	req.NoError(err)
	req.Equal([]string{"u3"}, blocked)
}

func TestPreferenceRepository_Defaults_Then_Saved(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewPreferenceRepository(openTestDB(t), slog.Default())

	prefs, err := repository.Get(ctx, "u1")
	req.NoError(err)
	req.Equal(domain.DefaultPreferences("u1"), prefs)

	prefs.Likes = false
	req.NoError(repository.Put(ctx, prefs))
	saved, err := repository.Get(ctx, "u1")
	req.NoError(err)
	req.False(saved.Likes)
	req.True(saved.Comments)
}

func TestPushRepository_Add_List_Remove(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewPushRepository(openTestDB(t), slog.Default())

	_, err := repository.Add(ctx, "u1", nil)
	req.ErrorIs(err, errors.ErrInvalidDescriptor)

	sub, err := repository.Add(ctx, "u1", json.RawMessage(`{"endpoint":"https://push.example/abc"}`))
	req.NoError(err)

	subs, err := repository.List(ctx, "u1")
	req.NoError(err)
	req.Len(subs, 1)
	req.JSONEq(`{"endpoint":"https://push.example/abc"}`, string(subs[0].Descriptor))

	req.NoError(repository.Remove(ctx, "u1", sub.ID))
	req.ErrorIs(repository.Remove(ctx, "u1", sub.ID), errors.ErrNotFound)
	subs, err = repository.List(ctx, "u1")
	req.NoError(err)
	req.Empty(subs)
}
