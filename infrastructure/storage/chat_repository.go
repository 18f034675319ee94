package storage

import (
	"agora/domain"
	"agora/errors"
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// ChatRepository persists conversations as one key per fact:
//
//	conv:{id}:meta                      name, group flag, timestamps
//	conv:{id}:member:{user}             participant set
//	conv:{id}:unread:{user}             unread counter
//	conv:{id}:msg:{ts}:{msg}            message body, ordered by server timestamp
//	conv:{id}:msgid:{msg}               message id -> body key
//	conv:{id}:react:{msg}:{user}        one reaction slot per reactor
//	conv:{id}:read:{msg}:{user}         reader set
//	pair:{a}:{b}                        direct conversation of a pair
//	member:{user}:{id}                  conversations of a user
//
// Counters and reactions are field level upserts inside serializable
// transactions, two writers touching the same fact conflict and one is replayed.
type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) ChatRepository {
	return ChatRepository{db: db, log: log}
}

type conversationMeta struct {
	ID        string    `json:"id"`
	IsGroup   bool      `json:"isGroup"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type diskMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content,omitempty"`
	MediaRef  string    `json:"mediaRef,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func convPrefix(id string) string               { return "conv:" + id + ":" }
func metaKey(id string) string                  { return convPrefix(id) + "meta" }
func memberPrefix(id string) string             { return convPrefix(id) + "member:" }
func unreadKey(id, user string) string          { return convPrefix(id) + "unread:" + user }
func messagePrefix(id string) string            { return convPrefix(id) + "msg:" }
func messageIDKey(id, msg string) string        { return convPrefix(id) + "msgid:" + msg }
func reactionPrefix(id, msg string) string      { return convPrefix(id) + "react:" + msg + ":" }
func readerPrefix(id, msg string) string        { return convPrefix(id) + "read:" + msg + ":" }
func pairKey(a, b string) string                { return "pair:" + domain.PairKey(a, b) }
func userConversationPrefix(user string) string { return "member:" + user + ":" }

func messageKey(id string, m domain.Message) string {
	return messagePrefix(id) + timeKey(m.CreatedAt) + ":" + m.ID
}

// CreateConversation stores c, unless c is a direct conversation whose pair
// already has one. In that case the existing conversation comes back with ErrDuplicatePair.
func (r ChatRepository) CreateConversation(_ context.Context, c domain.Conversation) (domain.Conversation, error) {
	if len(c.Participants) < domain.MinParticipants {
		return domain.Conversation{}, errors.ErrTooFewMembers
	}
	direct := !c.IsGroup && len(c.Participants) == domain.MinParticipants

	var result domain.Conversation
	err := update(r.db, func(txn *badger.Txn) error {
		if direct {
			var existingID string
			found, err := getJSON(txn, pairKey(c.Participants[0], c.Participants[1]), &existingID)
			if err != nil {
				return err
			}
			if found {
				if result, err = loadConversation(txn, existingID); err != nil {
					return err
				}
				return errors.ErrDuplicatePair
			}
		}

		meta := conversationMeta{ID: c.ID, IsGroup: c.IsGroup, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.CreatedAt}
		if err := setJSON(txn, metaKey(c.ID), meta); err != nil {
			return err
		}
		for _, p := range c.Participants {
			if err := txn.Set([]byte(memberPrefix(c.ID)+p), nil); err != nil {
				return err
			}
			if err := setJSON(txn, unreadKey(c.ID, p), 0); err != nil {
				return err
			}
			if err := txn.Set([]byte(userConversationPrefix(p)+c.ID), nil); err != nil {
				return err
			}
		}
		if direct {
			if err := setJSON(txn, pairKey(c.Participants[0], c.Participants[1]), c.ID); err != nil {
				return err
			}
		}
		result = c
		result.Unread = lo.SliceToMap(c.Participants, func(p string) (string, int) { return p, 0 })
		result.UpdatedAt = c.CreatedAt
		return nil
	})
	switch {
	case errors.Is(err, errors.ErrDuplicatePair):
		return result, err
	case err != nil:
		return domain.Conversation{}, err
	}
	return result, nil
}

func (r ChatRepository) FindDirect(_ context.Context, a, b string) (domain.Conversation, error) {
	var c domain.Conversation
	err := view(r.db, func(txn *badger.Txn) error {
		var id string
		found, err := getJSON(txn, pairKey(a, b), &id)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrConversationNotFound
		}
		c, err = loadConversation(txn, id)
		return err
	})
	return c, err
}

// GetConversation loads participants and counters, without messages.
func (r ChatRepository) GetConversation(_ context.Context, id string) (domain.Conversation, error) {
	var c domain.Conversation
	err := view(r.db, func(txn *badger.Txn) (err error) {
		c, err = loadConversation(txn, id)
		return err
	})
	return c, err
}

// ListConversations returns the conversations of userID, most recently active first.
func (r ChatRepository) ListConversations(_ context.Context, userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := view(r.db, func(txn *badger.Txn) error {
		prefix := userConversationPrefix(userID)
		for _, id := range suffixes(keysWithPrefix(txn, prefix), prefix) {
			c, err := loadConversation(txn, id)
			if errors.Is(err, errors.ErrConversationNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			conversations = append(conversations, c)
		}
		return nil
	})
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, err
}

func (r ChatRepository) DeleteConversation(_ context.Context, id string) error {
	return update(r.db, func(txn *badger.Txn) error {
		c, err := loadConversation(txn, id)
		if err != nil {
			return err
		}
		return deleteConversation(txn, c)
	})
}

// RemoveParticipant drops userID from the conversation and returns how many remain.
// The last departure deletes the whole aggregate, otherwise departure (when given) is appended.
func (r ChatRepository) RemoveParticipant(_ context.Context, id, userID string, departure *domain.Message) (int, error) {
	var remaining int
	err := update(r.db, func(txn *badger.Txn) error {
		c, err := loadConversation(txn, id)
		if err != nil {
			return err
		}
		if !c.HasParticipant(userID) {
			return errors.ErrNotParticipant
		}
		remaining = len(c.Participants) - 1
		if remaining == 0 {
			return deleteConversation(txn, c)
		}
		if err := deleteKeys(txn, []string{
			memberPrefix(id) + userID,
			unreadKey(id, userID),
			userConversationPrefix(userID) + id,
		}); err != nil {
			return err
		}
		// The pair no longer designates a live direct conversation.
		if !c.IsGroup && len(c.Participants) == domain.MinParticipants {
			if err := txn.Delete([]byte(pairKey(c.Participants[0], c.Participants[1]))); err != nil {
				return err
			}
		}
		if departure == nil {
			return nil
		}
		// The departure notice counts as unread like any other message.
		return appendMessage(txn, id, lo.Without(c.Participants, userID), *departure)
	})
	return remaining, err
}

// AppendMessage persists m and increments the unread counter of every other participant
// in the same transaction. The sender must still be a participant when it commits.
func (r ChatRepository) AppendMessage(_ context.Context, m domain.Message) (domain.Message, error) {
	id := m.ConversationID
	err := update(r.db, func(txn *badger.Txn) error {
		if _, err := loadMeta(txn, id); err != nil {
			return err
		}
		participants := suffixes(keysWithPrefix(txn, memberPrefix(id)), memberPrefix(id))
		if !lo.Contains(participants, m.SenderID) {
			return errors.ErrNotParticipant
		}
		return appendMessage(txn, id, lo.Without(participants, m.SenderID), m)
	})
	if err != nil {
		return domain.Message{}, err
	}
	m.Reactions = []domain.Reaction{}
	m.Readers = []string{}
	return m, nil
}

func (r ChatRepository) GetMessage(_ context.Context, conversationID, messageID string) (domain.Message, error) {
	var m domain.Message
	err := view(r.db, func(txn *badger.Txn) error {
		key, err := resolveMessageKey(txn, conversationID, messageID)
		if err != nil {
			return err
		}
		var dm diskMessage
		if _, err := getJSON(txn, key, &dm); err != nil {
			return err
		}
		m, err = hydrateMessage(txn, conversationID, dm)
		return err
	})
	return m, err
}

// ToggleReaction flips the reaction slot of userID on one message.
// Same emoji removes it, a different one replaces it.
func (r ChatRepository) ToggleReaction(_ context.Context, conversationID, messageID, userID, emoji string, at time.Time) (domain.ReactionChange, error) {
	var change domain.ReactionChange
	err := update(r.db, func(txn *badger.Txn) error {
		if _, err := resolveMessageKey(txn, conversationID, messageID); err != nil {
			return err
		}
		key := reactionPrefix(conversationID, messageID) + userID
		var current domain.Reaction
		found, err := getJSON(txn, key, &current)
		if err != nil {
			return err
		}
		switch {
		case found && current.Emoji == emoji:
			change = domain.ReactionRemoved
			return txn.Delete([]byte(key))
		case found:
			change = domain.ReactionReplaced
		default:
			change = domain.ReactionAdded
		}
		return setJSON(txn, key, domain.Reaction{UserID: userID, Emoji: emoji, At: at})
	})
	return change, err
}

// MarkRead adds userID to the readers of every message it did not author and
// resets its unread counter. It returns the ids of the messages newly read.
func (r ChatRepository) MarkRead(_ context.Context, conversationID, userID string, at time.Time) ([]string, error) {
	var marked []string
	err := update(r.db, func(txn *badger.Txn) error {
		marked = nil
		c, err := loadConversation(txn, conversationID)
		if err != nil {
			return err
		}
		if !c.HasParticipant(userID) {
			return errors.ErrNotParticipant
		}
		messages, err := scanMessages(txn, conversationID)
		if err != nil {
			return err
		}
		for _, m := range messages {
			if m.SenderID == userID {
				continue
			}
			key := readerPrefix(conversationID, m.ID) + userID
			read, err := exists(txn, key)
			if err != nil {
				return err
			}
			if read {
				continue
			}
			if err := setJSON(txn, key, at); err != nil {
				return err
			}
			marked = append(marked, m.ID)
		}
		return setJSON(txn, unreadKey(conversationID, userID), 0)
	})
	return marked, err
}

// DeleteMessage removes the message and everything attached to it.
func (r ChatRepository) DeleteMessage(_ context.Context, conversationID, messageID string) error {
	return update(r.db, func(txn *badger.Txn) error {
		key, err := resolveMessageKey(txn, conversationID, messageID)
		if err != nil {
			return err
		}
		keys := append([]string{key, messageIDKey(conversationID, messageID)},
			keysWithPrefix(txn, reactionPrefix(conversationID, messageID))...)
		keys = append(keys, keysWithPrefix(txn, readerPrefix(conversationID, messageID))...)
		return deleteKeys(txn, keys)
	})
}

// History returns at most limit messages strictly older than before, oldest first.
// A zero before starts from the newest message.
func (r ChatRepository) History(_ context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := view(r.db, func(txn *badger.Txn) error {
		if _, err := loadMeta(txn, conversationID); err != nil {
			return err
		}
		page, err := scanMessagesBefore(txn, conversationID, before, limit)
		if err != nil {
			return err
		}
		for i := len(page) - 1; i >= 0; i-- {
			m, err := hydrateMessage(txn, conversationID, page[i])
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	return messages, err
}

func loadMeta(txn *badger.Txn, id string) (conversationMeta, error) {
	var meta conversationMeta
	found, err := getJSON(txn, metaKey(id), &meta)
	if err != nil {
		return meta, err
	}
	if !found {
		return meta, errors.ErrConversationNotFound
	}
	return meta, nil
}

func loadConversation(txn *badger.Txn, id string) (domain.Conversation, error) {
	meta, err := loadMeta(txn, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	participants := suffixes(keysWithPrefix(txn, memberPrefix(id)), memberPrefix(id))
	unread := make(map[string]int, len(participants))
	for _, p := range participants {
		var count int
		if _, err := getJSON(txn, unreadKey(id, p), &count); err != nil {
			return domain.Conversation{}, err
		}
		unread[p] = count
	}
	return domain.Conversation{
		ID:           meta.ID,
		Participants: participants,
		IsGroup:      meta.IsGroup,
		Name:         meta.Name,
		Unread:       unread,
		CreatedAt:    meta.CreatedAt,
		UpdatedAt:    meta.UpdatedAt,
	}, nil
}

func deleteConversation(txn *badger.Txn, c domain.Conversation) error {
	keys := keysWithPrefix(txn, convPrefix(c.ID))
	for _, p := range c.Participants {
		keys = append(keys, userConversationPrefix(p)+c.ID)
	}
	if !c.IsGroup && len(c.Participants) == domain.MinParticipants {
		var owner string
		found, err := getJSON(txn, pairKey(c.Participants[0], c.Participants[1]), &owner)
		if err != nil {
			return err
		}
		if found && owner == c.ID {
			keys = append(keys, pairKey(c.Participants[0], c.Participants[1]))
		}
	}
	return deleteKeys(txn, keys)
}

// appendMessage stores m, bumps the unread counter of each recipient and the conversation activity.
func appendMessage(txn *badger.Txn, conversationID string, recipients []string, m domain.Message) error {
	meta, err := loadMeta(txn, conversationID)
	if err != nil {
		return err
	}
	for _, p := range recipients {
		var unread int
		if _, err := getJSON(txn, unreadKey(conversationID, p), &unread); err != nil {
			return err
		}
		if err := setJSON(txn, unreadKey(conversationID, p), unread+1); err != nil {
			return err
		}
	}
	if err := putMessage(txn, conversationID, m); err != nil {
		return err
	}
	meta.UpdatedAt = m.CreatedAt
	return setJSON(txn, metaKey(conversationID), meta)
}

func putMessage(txn *badger.Txn, conversationID string, m domain.Message) error {
	key := messageKey(conversationID, m)
	dm := diskMessage{ID: m.ID, SenderID: m.SenderID, Content: m.Content, MediaRef: m.MediaRef, CreatedAt: m.CreatedAt}
	if err := setJSON(txn, key, dm); err != nil {
		return err
	}
	return setJSON(txn, messageIDKey(conversationID, m.ID), key)
}

func resolveMessageKey(txn *badger.Txn, conversationID, messageID string) (string, error) {
	var key string
	found, err := getJSON(txn, messageIDKey(conversationID, messageID), &key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.ErrMessageNotFound
	}
	return key, nil
}

// scanMessages reads every message body of a conversation, oldest first.
func scanMessages(txn *badger.Txn, conversationID string) ([]diskMessage, error) {
	options := badger.DefaultIteratorOptions
	options.Prefix = []byte(messagePrefix(conversationID))
	it := txn.NewIterator(options)
	defer it.Close()

	var messages []diskMessage
	for it.Rewind(); it.ValidForPrefix(options.Prefix); it.Next() {
		var dm diskMessage
		if err := it.Item().Value(func(val []byte) error { return unmarshal(val, &dm) }); err != nil {
			return nil, err
		}
		messages = append(messages, dm)
	}
	return messages, nil
}

// scanMessagesBefore walks the conversation backwards from before and returns
// at most limit bodies, newest first.
func scanMessagesBefore(txn *badger.Txn, conversationID string, before time.Time, limit int) ([]diskMessage, error) {
	prefix := []byte(messagePrefix(conversationID))
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	it := txn.NewIterator(options)
	defer it.Close()

	// Keys at exactly "before" carry a ":{id}" suffix and sort after the seek key,
	// so a reverse seek lands on the first strictly older message.
	seekKey := append([]byte{}, prefix...)
	switch before.IsZero() {
	case true:
		seekKey = append(seekKey, []byte(newestKey)...)
	default:
		seekKey = append(seekKey, []byte(timeKey(before))...)
	}

	var page []diskMessage
	for it.Seek(seekKey); it.ValidForPrefix(prefix) && len(page) < limit; it.Next() {
		var dm diskMessage
		if err := it.Item().Value(func(val []byte) error { return unmarshal(val, &dm) }); err != nil {
			return nil, err
		}
		page = append(page, dm)
	}
	return page, nil
}

func hydrateMessage(txn *badger.Txn, conversationID string, dm diskMessage) (domain.Message, error) {
	m := domain.Message{
		ID:             dm.ID,
		ConversationID: conversationID,
		SenderID:       dm.SenderID,
		Content:        dm.Content,
		MediaRef:       dm.MediaRef,
		CreatedAt:      dm.CreatedAt,
		Reactions:      []domain.Reaction{},
		Readers:        []string{},
	}
	for _, key := range keysWithPrefix(txn, reactionPrefix(conversationID, dm.ID)) {
		var reaction domain.Reaction
		if _, err := getJSON(txn, key, &reaction); err != nil {
			return domain.Message{}, err
		}
		m.Reactions = append(m.Reactions, reaction)
	}
	sort.Slice(m.Reactions, func(i, j int) bool { return m.Reactions[i].At.Before(m.Reactions[j].At) })

	prefix := readerPrefix(conversationID, dm.ID)
	for _, key := range keysWithPrefix(txn, prefix) {
		m.Readers = append(m.Readers, strings.TrimPrefix(key, prefix))
	}
	return m, nil
}
