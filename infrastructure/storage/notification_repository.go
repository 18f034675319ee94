package storage

import (
	"agora/domain"
	"agora/errors"
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// NotificationRepository stores notification records:
//
//	notif:{recipient}:{ts}:{id}                     record, newest last
//	notifid:{id}                                    record locator
//	notifunread:{recipient}:{id}                    unread marker
//	notifkey:{recipient}:{actor}:{type}:{target}    latest debounced record
//
// Every key expires once the record is older than the retention horizon.
type NotificationRepository struct {
	db        *badger.DB
	log       *slog.Logger
	retention time.Duration
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger, retention time.Duration) NotificationRepository {
	return NotificationRepository{db: db, log: log, retention: retention}
}

type notificationLocator struct {
	Recipient string `json:"recipient"`
	Key       string `json:"key"`
}

func notificationPrefix(recipient string) string { return "notif:" + recipient + ":" }
func notificationKey(n domain.Notification) string {
	return notificationPrefix(n.Recipient) + timeKey(n.CreatedAt) + ":" + n.ID
}
func notificationIDKey(id string) string   { return "notifid:" + id }
func unreadPrefix(recipient string) string { return "notifunread:" + recipient + ":" }
func debounceKey(n domain.Notification) string {
	return "notifkey:" + n.Recipient + ":" + n.Actor + ":" + string(n.Type) + ":" + n.Target()
}

func (r NotificationRepository) Create(_ context.Context, n domain.Notification) error {
	return update(r.db, func(txn *badger.Txn) error {
		return r.put(txn, n)
	})
}

// CreateOrRefresh moves the matching unread record to n.CreatedAt when it is younger
// than window. Otherwise n is stored and becomes the record matched next time.
func (r NotificationRepository) CreateOrRefresh(_ context.Context, n domain.Notification, window time.Duration) (domain.Notification, bool, error) {
	var result domain.Notification
	var created bool
	err := update(r.db, func(txn *badger.Txn) error {
		var id string
		found, err := getJSON(txn, debounceKey(n), &id)
		if err != nil {
			return err
		}
		if found {
			existing, ok, err := r.load(txn, id)
			if err != nil {
				return err
			}
			if ok && !existing.Read && n.CreatedAt.Sub(existing.CreatedAt) < window {
				if err := txn.Delete([]byte(notificationKey(existing))); err != nil {
					return err
				}
				existing.CreatedAt = n.CreatedAt
				result, created = existing, false
				return r.put(txn, existing)
			}
		}
		result, created = n, true
		return r.put(txn, n)
	})
	return result, created, err
}

// List returns at most limit records strictly older than before, newest first.
func (r NotificationRepository) List(_ context.Context, recipient string, before time.Time, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := view(r.db, func(txn *badger.Txn) error {
		prefix := []byte(notificationPrefix(recipient))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte{}, prefix...)
		switch before.IsZero() {
		case true:
			seekKey = append(seekKey, []byte(newestKey)...)
		default:
			seekKey = append(seekKey, []byte(timeKey(before))...)
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix) && len(notifications) < limit; it.Next() {
			var n domain.Notification
			if err := it.Item().Value(func(val []byte) error { return unmarshal(val, &n) }); err != nil {
				return err
			}
			notifications = append(notifications, n)
		}
		return nil
	})
	return notifications, err
}

func (r NotificationRepository) MarkRead(_ context.Context, recipient, id string) error {
	return update(r.db, func(txn *badger.Txn) error {
		var locator notificationLocator
		found, err := getJSON(txn, notificationIDKey(id), &locator)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrNotificationNotFound
		}
		if locator.Recipient != recipient {
			return errors.ErrNotRecipient
		}
		return r.markRead(txn, id)
	})
}

// MarkAllRead returns how many records switched to read.
func (r NotificationRepository) MarkAllRead(_ context.Context, recipient string) (int, error) {
	var count int
	err := update(r.db, func(txn *badger.Txn) error {
		count = 0
		prefix := unreadPrefix(recipient)
		for _, id := range suffixes(keysWithPrefix(txn, prefix), prefix) {
			if err := r.markRead(txn, id); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func (r NotificationRepository) CountUnread(_ context.Context, recipient string) (int, error) {
	var count int
	err := view(r.db, func(txn *badger.Txn) error {
		count = len(keysWithPrefix(txn, unreadPrefix(recipient)))
		return nil
	})
	return count, err
}

func (r NotificationRepository) expiry(n domain.Notification) time.Time {
	if r.retention <= 0 {
		return time.Time{}
	}
	return n.CreatedAt.Add(r.retention)
}

func (r NotificationRepository) put(txn *badger.Txn, n domain.Notification) error {
	until := r.expiry(n)
	key := notificationKey(n)
	if err := setJSONUntil(txn, key, n, until); err != nil {
		return err
	}
	if err := setJSONUntil(txn, notificationIDKey(n.ID), notificationLocator{Recipient: n.Recipient, Key: key}, until); err != nil {
		return err
	}
	if !n.Read {
		if err := setJSONUntil(txn, unreadPrefix(n.Recipient)+n.ID, true, until); err != nil {
			return err
		}
	}
	if n.Type.Debounced() {
		return setJSONUntil(txn, debounceKey(n), n.ID, until)
	}
	return nil
}

func (r NotificationRepository) load(txn *badger.Txn, id string) (domain.Notification, bool, error) {
	var locator notificationLocator
	found, err := getJSON(txn, notificationIDKey(id), &locator)
	if err != nil || !found {
		return domain.Notification{}, false, err
	}
	var n domain.Notification
	found, err = getJSON(txn, locator.Key, &n)
	return n, found, err
}

func (r NotificationRepository) markRead(txn *badger.Txn, id string) error {
	n, found, err := r.load(txn, id)
	if err != nil {
		return err
	}
	if !found {
		return errors.ErrNotificationNotFound
	}
	if err := txn.Delete([]byte(unreadPrefix(n.Recipient) + id)); err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	n.Read = true
	return setJSONUntil(txn, notificationKey(n), n, r.expiry(n))
}
