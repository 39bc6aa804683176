package taskqueue

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get for a missing key
var ErrNotFound = pebble.ErrNotFound

// DBQueue is a small wrapper around a Pebble DB instance used as a
// persistent work queue or index.
type DBQueue struct {
	DB       *pebble.DB
	DataFile string
}

// Entry is one key/value pair returned by List
type Entry struct {
	Key   string
	Value []byte
}

// OpenQueue opens (or creates) a pebble DB at the given dataFile path and
// returns a DBQueue wrapper.
func OpenQueue(dataFile string) (*DBQueue, error) {
	db, err := pebble.Open(dataFile, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &DBQueue{DB: db, DataFile: dataFile}, nil
}

// Add stores a value under the given key.
func (q *DBQueue) Add(key string, value []byte) error {
	return q.DB.Set([]byte(key), value, pebble.Sync)
}

// Get returns a copy of the value for the given key.
func (q *DBQueue) Get(key string) ([]byte, error) {
	value, closer, err := q.DB.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Has reports whether key is present.
func (q *DBQueue) Has(key string) (bool, error) {
	_, closer, err := q.DB.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

// Delete removes the key from the DB.
func (q *DBQueue) Delete(key string) error {
	return q.DB.Delete([]byte(key), pebble.Sync)
}

// List returns every entry whose key starts with prefix, in key order.
// An empty prefix lists everything.
func (q *DBQueue) List(prefix string) ([]Entry, error) {
	opts := &pebble.IterOptions{}
	if prefix != "" {
		opts.LowerBound = []byte(prefix)
		opts.UpperBound = prefixEnd([]byte(prefix))
	}
	iter, err := q.DB.NewIter(opts)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		entries = append(entries, Entry{Key: string(iter.Key()), Value: value})
	}
	return entries, iter.Error()
}

// DeletePrefix removes every key starting with prefix.
func (q *DBQueue) DeletePrefix(prefix string) error {
	end := prefixEnd([]byte(prefix))
	if end == nil {
		return errors.New("taskqueue: prefix has no upper bound")
	}
	return q.DB.DeleteRange([]byte(prefix), end, pebble.Sync)
}

// Close closes the underlying DB.
func (q *DBQueue) Close() error {
	return q.DB.Close()
}

// prefixEnd returns the smallest key greater than every key with the prefix
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
