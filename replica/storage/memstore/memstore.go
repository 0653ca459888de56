// Package memstore is a map-backed storage.KeyValueStore used for tests
// and the in-memory-only client operating mode, mirroring the teacher's
// tosdb/memorydb package.
package memstore

import (
	"bytes"
	"sort"
	"sync"

	"github.com/opchan/core/replica/storage"
)

// Database is an in-memory storage.KeyValueStore.
type Database struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory database.
func New() *Database {
	return &Database{data: make(map[string][]byte)}
}

func (d *Database) Has(key []byte) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.data[string(key)]
	return ok, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.data[string(key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (d *Database) Put(key, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (d *Database) Delete(key []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, string(key))
	return nil
}

func (d *Database) Close() error { return nil }

func (d *Database) NewIterator(prefix []byte) storage.Iterator {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	entries := make([][2][]byte, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, [2][]byte{[]byte(k), append([]byte(nil), d.data[k]...)})
	}
	return &iterator{entries: entries, pos: -1}
}

type iterator struct {
	entries [][2][]byte
	pos     int
}

func (it *iterator) Next() bool {
	it.pos++
	return it.pos < len(it.entries)
}

func (it *iterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return it.entries[it.pos][0]
}

func (it *iterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.entries) {
		return nil
	}
	return it.entries[it.pos][1]
}

func (it *iterator) Error() error { return nil }
func (it *iterator) Release()     {}

type batch struct {
	db   *Database
	ops  []op
	size int
}

type op struct {
	key    []byte
	value  []byte
	delete bool
}

func (d *Database) NewBatch() storage.Batch {
	return &batch{db: d}
}

func (b *batch) Put(key, value []byte) error {
	b.ops = append(b.ops, op{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: append([]byte(nil), key...), delete: true})
	b.size += len(key)
	return nil
}

func (b *batch) ValueSize() int { return b.size }

func (b *batch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, o := range b.ops {
		if o.delete {
			delete(b.db.data, string(o.key))
			continue
		}
		b.db.data[string(o.key)] = o.value
	}
	return nil
}

func (b *batch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}
