package storage

import (
	"agora/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds how often a transaction is replayed after a badger conflict.
const maxTxnRetries = 64

// Open opens the store at path. An empty path opens an in-memory store.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return db, nil
}

// update runs fn in a serializable read-write transaction, replaying it while
// badger reports a conflict with a concurrent writer.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt <= maxTxnRetries; attempt++ {
		err = db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return storeError(err)
		}
	}
	return errors.Transient(err)
}

func view(db *badger.DB, fn func(txn *badger.Txn) error) error {
	return storeError(db.View(fn))
}

// storeError keeps domain errors as they are and marks everything else transient.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrAuthorization),
		errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrValidation),
		errors.Is(err, errors.ErrConflict),
		errors.Is(err, errors.ErrTransient):
		return err
	default:
		return errors.Transient(err)
	}
}

func getJSON(txn *badger.Txn, key string, out any) (bool, error) {
	item, err := txn.Get([]byte(key))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return unmarshal(val, out)
	})
}

func unmarshal(val []byte, out any) error {
	return json.Unmarshal(val, out)
}

func setJSON(txn *badger.Txn, key string, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), bytes)
}

// setJSONUntil writes value so that it expires at the given instant.
// A zero instant keeps the entry forever.
func setJSONUntil(txn *badger.Txn, key string, value any, until time.Time) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := badger.NewEntry([]byte(key), bytes)
	if !until.IsZero() {
		ttl := time.Until(until)
		if ttl < time.Second {
			ttl = time.Second
		}
		entry = entry.WithTTL(ttl)
	}
	return txn.SetEntry(entry)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// keysWithPrefix lists every key under prefix without fetching values.
// The iterator is closed on return so read-write transactions may keep writing.
func keysWithPrefix(txn *badger.Txn, prefix string) []string {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = []byte(prefix)
	it := txn.NewIterator(options)
	defer it.Close()

	var keys []string
	for it.Rewind(); it.ValidForPrefix(options.Prefix); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys
}

// suffixes returns the part of each key following prefix.
func suffixes(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k[len(prefix):])
	}
	return out
}

func deleteKeys(txn *badger.Txn, keys []string) error {
	for _, k := range keys {
		if err := txn.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

// timeKey renders t so that lexicographical order follows chronological order.
func timeKey(t time.Time) string {
	return fmt.Sprintf("%019d", t.UnixNano())
}

// newestKey sorts after every timeKey, seeking to it starts a reverse scan at the newest entry.
const newestKey = "9999999999999999999"
