package storage

import (
	"agora/domain"
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type PreferenceRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewPreferenceRepository(db *badger.DB, log *slog.Logger) PreferenceRepository {
	return PreferenceRepository{db: db, log: log}
}

func preferenceKey(userID string) string { return "prefs:" + userID }

// Get falls back to every category enabled when the user never saved anything.
func (r PreferenceRepository) Get(_ context.Context, userID string) (domain.Preferences, error) {
	prefs := domain.DefaultPreferences(userID)
	err := view(r.db, func(txn *badger.Txn) error {
		_, err := getJSON(txn, preferenceKey(userID), &prefs)
		return err
	})
	prefs.UserID = userID
	return prefs, err
}

func (r PreferenceRepository) Put(_ context.Context, p domain.Preferences) error {
	return update(r.db, func(txn *badger.Txn) error {
		return setJSON(txn, preferenceKey(p.UserID), p)
	})
}
