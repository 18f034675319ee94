package storage

import (
	"agora/domain"
	"agora/errors"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// IdentityRepository is the local copy of the accounts owned by the
// auth collaborator, with their block lists:
//
//	user:{id}                  identity
//	handle:{lowercase handle}  identity id
//	block:{user}:{blocked}     block date
type IdentityRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewIdentityRepository(db *badger.DB, log *slog.Logger) IdentityRepository {
	return IdentityRepository{db: db, log: log}
}

func identityKey(id string) string     { return "user:" + id }
func handleKey(handle string) string   { return "handle:" + strings.ToLower(handle) }
func blockPrefix(userID string) string { return "block:" + userID + ":" }

// Put inserts or replaces an identity and keeps the handle index in sync.
func (r IdentityRepository) Put(_ context.Context, identity domain.Identity) error {
	return update(r.db, func(txn *badger.Txn) error {
		var previous domain.Identity
		found, err := getJSON(txn, identityKey(identity.ID), &previous)
		if err != nil {
			return err
		}
		if found && previous.Handle != "" && !strings.EqualFold(previous.Handle, identity.Handle) {
			if err := txn.Delete([]byte(handleKey(previous.Handle))); err != nil {
				return err
			}
		}
		if err := setJSON(txn, identityKey(identity.ID), identity); err != nil {
			return err
		}
		if identity.Handle == "" {
			return nil
		}
		return setJSON(txn, handleKey(identity.Handle), identity.ID)
	})
}

func (r IdentityRepository) Get(_ context.Context, id string) (domain.Identity, error) {
	var identity domain.Identity
	err := view(r.db, func(txn *badger.Txn) error {
		found, err := getJSON(txn, identityKey(id), &identity)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrIdentityNotFound
		}
		return nil
	})
	return identity, err
}

// FindByHandle resolves a handle case-insensitively.
func (r IdentityRepository) FindByHandle(ctx context.Context, handle string) (domain.Identity, error) {
	var id string
	err := view(r.db, func(txn *badger.Txn) error {
		found, err := getJSON(txn, handleKey(handle), &id)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrIdentityNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return r.Get(ctx, id)
}

func (r IdentityRepository) Block(_ context.Context, userID, blockedID string, at time.Time) error {
	return update(r.db, func(txn *badger.Txn) error {
		return setJSON(txn, blockPrefix(userID)+blockedID, at)
	})
}

func (r IdentityRepository) Unblock(_ context.Context, userID, blockedID string) error {
	return update(r.db, func(txn *badger.Txn) error {
		return txn.Delete([]byte(blockPrefix(userID) + blockedID))
	})
}

func (r IdentityRepository) BlockedBy(_ context.Context, id string) ([]string, error) {
	var blocked []string
	err := view(r.db, func(txn *badger.Txn) error {
		blocked = suffixes(keysWithPrefix(txn, blockPrefix(id)), blockPrefix(id))
		return nil
	})
	return blocked, err
}
