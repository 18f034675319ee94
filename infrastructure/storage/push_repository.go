package storage

import (
	"agora/domain"
	"agora/errors"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// PushRepository keeps the push descriptors of a user under push:{user}:{id}.
type PushRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewPushRepository(db *badger.DB, log *slog.Logger) PushRepository {
	return PushRepository{db: db, log: log}
}

func pushPrefix(userID string) string { return "push:" + userID + ":" }

func (r PushRepository) Add(_ context.Context, userID string, descriptor json.RawMessage) (domain.PushSubscription, error) {
	if len(descriptor) == 0 || string(descriptor) == "null" {
		return domain.PushSubscription{}, errors.ErrInvalidDescriptor
	}
	sub := domain.PushSubscription{
		ID:         uuid.NewString(),
		UserID:     userID,
		Descriptor: descriptor,
		CreatedAt:  time.Now().UTC(),
	}
	err := update(r.db, func(txn *badger.Txn) error {
		return setJSON(txn, pushPrefix(userID)+sub.ID, sub)
	})
	if err != nil {
		return domain.PushSubscription{}, err
	}
	return sub, nil
}

func (r PushRepository) List(_ context.Context, userID string) ([]domain.PushSubscription, error) {
	var subs []domain.PushSubscription
	err := view(r.db, func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, pushPrefix(userID)) {
			var sub domain.PushSubscription
			if _, err := getJSON(txn, key, &sub); err != nil {
				return err
			}
			subs = append(subs, sub)
		}
		return nil
	})
	return subs, err
}

func (r PushRepository) Remove(_ context.Context, userID, id string) error {
	return update(r.db, func(txn *badger.Txn) error {
		found, err := exists(txn, pushPrefix(userID)+id)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrNotFound
		}
		return txn.Delete([]byte(pushPrefix(userID) + id))
	})
}
