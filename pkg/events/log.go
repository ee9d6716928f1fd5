// Package events is the append-only event log behind the lane telemetry
// actors. Events are keyed per actor with a zero-padded version so a prefix
// scan replays them in order; snapshots bound how far a replay reaches back.
package events

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/segmentio/ksuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Event is one recorded state change of an actor's journal.
type Event struct {
	ID      string
	ActorID string
	Type    string
	Version int
	At      time.Time
	Payload []byte
}

// Snapshot is a full-state checkpoint; replay resumes after its version.
type Snapshot struct {
	ActorID string
	Version int
	At      time.Time
	Payload []byte
}

type Log struct {
	db *badger.DB
}

func NewLog(db *badger.DB) *Log {
	return &Log{db: db}
}

func eventKey(actorID string, version int) []byte {
	return []byte(fmt.Sprintf("event/%s/%020d", actorID, version))
}

func eventPrefix(actorID string) []byte {
	return []byte(fmt.Sprintf("event/%s/", actorID))
}

func snapshotKey(actorID string) []byte {
	return []byte("snapshot/" + actorID)
}

// Append records one event at the given version. Versions must be written
// in increasing order by the single actor that owns the journal.
func (l *Log) Append(actorID, eventType string, version int, payload any) error {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	buf, err := msgpack.Marshal(Event{
		ID:      ksuid.New().String(),
		ActorID: actorID,
		Type:    eventType,
		Version: version,
		At:      time.Now(),
		Payload: body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(actorID, version), buf)
	})
}

// ReadFrom replays the actor's events with version >= fromVersion, in
// version order. fn returning an error stops the replay.
func (l *Log) ReadFrom(actorID string, fromVersion int, fn func(Event) error) error {
	prefix := eventPrefix(actorID)
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(eventKey(actorID, fromVersion)); it.ValidForPrefix(prefix); it.Next() {
			var e Event
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &e)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal event %s: %w", it.Item().Key(), err)
			}
			if err := fn(e); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSnapshot overwrites the actor's checkpoint. The journal entries it
// covers stay in place; recovery just skips past them.
func (l *Log) SaveSnapshot(actorID string, version int, payload any) error {
	body, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}
	buf, err := msgpack.Marshal(Snapshot{
		ActorID: actorID,
		Version: version,
		At:      time.Now(),
		Payload: body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(actorID), buf)
	})
}

// LatestSnapshot returns the actor's checkpoint if one exists.
func (l *Log) LatestSnapshot(actorID string) (Snapshot, bool, error) {
	var snap Snapshot
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(actorID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &snap)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to read snapshot %s: %w", actorID, err)
	}
	return snap, true, nil
}
