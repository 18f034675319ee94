package storage

import (
	"agora/domain"
	"agora/errors"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newDirect(a, b string) domain.Conversation {
	return domain.Conversation{
		ID:           uuid.NewString(),
		Participants: domain.NormalizeMembers(a, []string{b}),
		CreatedAt:    time.Now().UTC(),
	}
}

func newMessage(conversationID, sender, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       sender,
		Content:        content,
		CreatedAt:      at,
	}
}

func TestChatRepository_CreateConversation_Direct_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())

	// Given a first direct conversation between Alice and Bob
	first, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)

	// When the same pair asks again, in the other order
	second, err := repository.CreateConversation(ctx, newDirect("bob", "alice"))

	// Then the existing conversation is returned with the conflict
	req.ErrorIs(err, errors.ErrDuplicatePair)
	req.ErrorIs(err, errors.ErrConflict)
	req.Equal(first.ID, second.ID)
	req.Equal(map[string]int{"alice": 0, "bob": 0}, second.Unread)

	conversations, err := repository.ListConversations(ctx, "alice")
	req.NoError(err)
	req.Len(conversations, 1)
}

func TestChatRepository_CreateConversation_Concurrent_Pair_Yields_One(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
			ids[i], errs[i] = c.ID, err
		}(i)
	}
	wg.Wait()

	// One request wins, every other one gets the winner back
	winners := 0
	for i, id := range ids {
		if errs[i] == nil {
			winners++
		} else {
			req.ErrorIs(errs[i], errors.ErrDuplicatePair)
		}
		req.Equal(ids[0], id)
	}
	req.Equal(1, winners)
}

func TestChatRepository_CreateConversation_Group_Is_Never_Deduplicated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())

	group := newDirect("alice", "bob")
	group.IsGroup = true
	group.Name = "weekend"
	first, err := repository.CreateConversation(ctx, group)
	req.NoError(err)

	other := newDirect("alice", "bob")
	other.IsGroup = true
	second, err := repository.CreateConversation(ctx, other)
	req.NoError(err)
	req.NotEqual(first.ID, second.ID)
}

func TestChatRepository_CreateConversation_Rejects_Single_Member(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), slog.Default())

	_, err := repository.CreateConversation(context.Background(), domain.Conversation{
		ID: uuid.NewString(), Participants: []string{"alice"},
	})
	req.ErrorIs(err, errors.ErrValidation)
}

func TestChatRepository_AppendMessage_Increments_Unread_Of_Others(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	c, err := repository.CreateConversation(ctx, newDirect("u1", "u2"))
	req.NoError(err)

	// When U1 sends "hi"
	_, err = repository.AppendMessage(ctx, newMessage(c.ID, "u1", "hi", time.Now().UTC()))
	req.NoError(err)

	// Then only U2 has an unread message
	c, err = repository.GetConversation(ctx, c.ID)
	req.NoError(err)
	req.Equal(map[string]int{"u1": 0, "u2": 1}, c.Unread)

	// When U2 reads
	marked, err := repository.MarkRead(ctx, c.ID, "u2", time.Now().UTC())
	req.NoError(err)
	req.Len(marked, 1)

	// Then counters are back to zero and U2 is the only reader
	c, err = repository.GetConversation(ctx, c.ID)
	req.NoError(err)
	req.Equal(map[string]int{"u1": 0, "u2": 0}, c.Unread)
	history, err := repository.History(ctx, c.ID, time.Time{}, 20)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal([]string{"u2"}, history[0].Readers)
}

func TestChatRepository_AppendMessage_Concurrent_Keeps_Every_Increment(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	group := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: domain.NormalizeMembers("a", []string{"b", "c"}),
		IsGroup:      true,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := repository.CreateConversation(ctx, group)
	req.NoError(err)

	// Given A and B sending at the same time
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		for _, sender := range []string{"a", "b"} {
			wg.Add(1)
			go func(sender string) {
				defer wg.Done()
				_, err := repository.AppendMessage(ctx, newMessage(group.ID, sender, "ping", time.Now().UTC()))
				errs <- err
			}(sender)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then no increment was lost
	c, err := repository.GetConversation(ctx, group.ID)
	req.NoError(err)
	req.Equal(10, c.Unread["a"])
	req.Equal(10, c.Unread["b"])
	req.Equal(20, c.Unread["c"])
}

func TestChatRepository_AppendMessage_Requires_Participant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	c, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)

	_, err = repository.AppendMessage(ctx, newMessage(c.ID, "mallory", "hey", time.Now().UTC()))
	req.ErrorIs(err, errors.ErrNotParticipant)

	_, err = repository.AppendMessage(ctx, newMessage(uuid.NewString(), "alice", "hey", time.Now().UTC()))
	req.ErrorIs(err, errors.ErrConversationNotFound)

	history, err := repository.History(ctx, c.ID, time.Time{}, 20)
	req.NoError(err)
	req.Empty(history)
}

func TestChatRepository_MarkRead_Skips_Own_And_Other_Readers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	group := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: domain.NormalizeMembers("a", []string{"b", "c"}),
		IsGroup:      true,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := repository.CreateConversation(ctx, group)
	req.NoError(err)
	m, err := repository.AppendMessage(ctx, newMessage(group.ID, "a", "hello", time.Now().UTC()))
	req.NoError(err)

	// When B reads twice
	_, err = repository.MarkRead(ctx, group.ID, "b", time.Now().UTC())
	req.NoError(err)
	marked, err := repository.MarkRead(ctx, group.ID, "b", time.Now().UTC())
	req.NoError(err)
	req.Empty(marked)

	// Then readers contain B only, not A and not C
	stored, err := repository.GetMessage(ctx, group.ID, m.ID)
	req.NoError(err)
	req.Equal([]string{"b"}, stored.Readers)

	c, err := repository.GetConversation(ctx, group.ID)
	req.NoError(err)
	req.Equal(1, c.Unread["c"])
}

func TestChatRepository_ToggleReaction(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	c, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)
	m, err := repository.AppendMessage(ctx, newMessage(c.ID, "alice", "hi", time.Now().UTC()))
	req.NoError(err)

	// X then X nets zero reactions
	change, err := repository.ToggleReaction(ctx, c.ID, m.ID, "bob", "👍", time.Now().UTC())
	req.NoError(err)
	req.Equal(domain.ReactionAdded, change)
	change, err = repository.ToggleReaction(ctx, c.ID, m.ID, "bob", "👍", time.Now().UTC())
	req.NoError(err)
	req.Equal(domain.ReactionRemoved, change)
	stored, err := repository.GetMessage(ctx, c.ID, m.ID)
	req.NoError(err)
	req.Empty(stored.Reactions)

	// X then Y nets exactly one reaction, Y
	_, err = repository.ToggleReaction(ctx, c.ID, m.ID, "bob", "👍", time.Now().UTC())
	req.NoError(err)
	change, err = repository.ToggleReaction(ctx, c.ID, m.ID, "bob", "❤️", time.Now().UTC())
	req.NoError(err)
	req.Equal(domain.ReactionReplaced, change)
	stored, err = repository.GetMessage(ctx, c.ID, m.ID)
	req.NoError(err)
	req.Len(stored.Reactions, 1)
	req.Equal("❤️", stored.Reactions[0].Emoji)

	_, err = repository.ToggleReaction(ctx, c.ID, uuid.NewString(), "bob", "👍", time.Now().UTC())
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestChatRepository_ToggleReaction_Concurrent_Loses_No_Toggle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	group := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: domain.NormalizeMembers("a", []string{"b", "c", "d"}),
		IsGroup:      true,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := repository.CreateConversation(ctx, group)
	req.NoError(err)
	m, err := repository.AppendMessage(ctx, newMessage(group.ID, "a", "vote", time.Now().UTC()))
	req.NoError(err)

	// Given b and c toggling three times and d four times, all at once
	toggles := map[string]int{"b": 3, "c": 3, "d": 4}
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for reactor, n := range toggles {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(reactor string) {
				defer wg.Done()
				_, err := repository.ToggleReaction(ctx, group.ID, m.ID, reactor, "🔥", time.Now().UTC())
				errs <- err
			}(reactor)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then an odd count leaves the reaction and an even one removes it
	stored, err := repository.GetMessage(ctx, group.ID, m.ID)
	req.NoError(err)
	reactors := make([]string, 0, len(stored.Reactions))
	for _, reaction := range stored.Reactions {
		req.Equal("🔥", reaction.Emoji)
		reactors = append(reactors, reaction.UserID)
	}
	req.ElementsMatch([]string{"b", "c"}, reactors)
}

func TestChatRepository_DeleteMessage_Removes_It_From_History(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	c, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)
	m, err := repository.AppendMessage(ctx, newMessage(c.ID, "alice", "oops", time.Now().UTC()))
	req.NoError(err)
	_, err = repository.ToggleReaction(ctx, c.ID, m.ID, "bob", "😂", time.Now().UTC())
	req.NoError(err)

	req.NoError(repository.DeleteMessage(ctx, c.ID, m.ID))

	_, err = repository.GetMessage(ctx, c.ID, m.ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)
	history, err := repository.History(ctx, c.ID, time.Time{}, 20)
	req.NoError(err)
	req.Empty(history)
	req.ErrorIs(repository.DeleteMessage(ctx, c.ID, m.ID), errors.ErrMessageNotFound)
}

func TestChatRepository_History_Pagination(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	c, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)

	start := time.Now().UTC()
	var sent []domain.Message
	for i := 0; i < 25; i++ {
		m, err := repository.AppendMessage(ctx, newMessage(c.ID, "alice", "hi", start.Add(time.Duration(i)*time.Second)))
		req.NoError(err)
		sent = append(sent, m)
	}

	// When fetching the latest page
	page, err := repository.History(ctx, c.ID, time.Time{}, 20)
	req.NoError(err)

	// Then the 20 newest come back in ascending order
	req.Len(page, 20)
	req.Equal(sent[5].ID, page[0].ID)
	req.Equal(sent[24].ID, page[19].ID)

	// When fetching what is strictly older than the first of the page
	older, err := repository.History(ctx, c.ID, page[0].CreatedAt, 20)
	req.NoError(err)
	req.Len(older, 5)
	req.Equal(sent[0].ID, older[0].ID)
	req.Equal(sent[4].ID, older[4].ID)
	for i := 1; i < len(older); i++ {
		req.True(older[i-1].CreatedAt.Before(older[i].CreatedAt))
	}
}

func TestChatRepository_RemoveParticipant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	group := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: domain.NormalizeMembers("a", []string{"b", "c"}),
		IsGroup:      true,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := repository.CreateConversation(ctx, group)
	req.NoError(err)

	// When A leaves with a departure notice
	departure := domain.Message{ID: uuid.NewString(), ConversationID: group.ID, SenderID: domain.SystemSenderID, Content: "a left", CreatedAt: time.Now().UTC()}
	remaining, err := repository.RemoveParticipant(ctx, group.ID, "a", &departure)
	req.NoError(err)
	req.Equal(2, remaining)

	c, err := repository.GetConversation(ctx, group.ID)
	req.NoError(err)
	req.Equal([]string{"b", "c"}, c.Participants)
	// Then the notice is unread for those who stayed
	req.Equal(map[string]int{"b": 1, "c": 1}, c.Unread)
	req.True(c.UpdatedAt.Equal(departure.CreatedAt))
	history, err := repository.History(ctx, group.ID, time.Time{}, 20)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(domain.SystemSenderID, history[0].SenderID)

	_, err = repository.RemoveParticipant(ctx, group.ID, "a", nil)
	req.ErrorIs(err, errors.ErrNotParticipant)

	// When everyone else leaves the conversation is gone
	_, err = repository.RemoveParticipant(ctx, group.ID, "b", nil)
	req.NoError(err)
	remaining, err = repository.RemoveParticipant(ctx, group.ID, "c", nil)
	req.NoError(err)
	req.Zero(remaining)
	_, err = repository.GetConversation(ctx, group.ID)
	req.ErrorIs(err, errors.ErrConversationNotFound)
	list, err := repository.ListConversations(ctx, "c")
	req.NoError(err)
	req.Empty(list)
}

func TestChatRepository_DeleteConversation_Releases_Pair(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	first, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)
	_, err = repository.AppendMessage(ctx, newMessage(first.ID, "alice", "hi", time.Now().UTC()))
	req.NoError(err)

	req.NoError(repository.DeleteConversation(ctx, first.ID))

	_, err = repository.FindDirect(ctx, "alice", "bob")
	req.ErrorIs(err, errors.ErrConversationNotFound)
	second, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)
	req.NotEqual(first.ID, second.ID)
}

func TestChatRepository_ListConversations_Most_Recent_First(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewChatRepository(openTestDB(t), slog.Default())
	withBob, err := repository.CreateConversation(ctx, newDirect("alice", "bob"))
	req.NoError(err)
	withCarol, err := repository.CreateConversation(ctx, newDirect("alice", "carol"))
	req.NoError(err)

	_, err = repository.AppendMessage(ctx, newMessage(withBob.ID, "bob", "up?", time.Now().UTC().Add(time.Minute)))
	req.NoError(err)

	list, err := repository.ListConversations(ctx, "alice")
	req.NoError(err)
	req.Len(list, 2)
	req.Equal(withBob.ID, list[0].ID)
	req.Equal(withCarol.ID, list[1].ID)
}
