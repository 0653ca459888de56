// Package leveldbstore backs storage.KeyValueStore with
// github.com/syndtr/goleveldb, mirroring the teacher's tosdb/leveldb
// package and its prefix-namespaced column convention (see
// core/rawdb/accessors_state.go for the scheme this module follows).
package leveldbstore

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/opchan/core/replica/storage"
)

// Database wraps a goleveldb handle.
type Database struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a LevelDB database at path.
func Open(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

func (d *Database) Get(key []byte) ([]byte, error) {
	v, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	return v, err
}

func (d *Database) Put(key, value []byte) error {
	return d.db.Put(key, value, nil)
}

func (d *Database) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) NewIterator(prefix []byte) storage.Iterator {
	return &levelIterator{it: d.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

type levelIterator struct {
	it iterator.Iterator
}

func (it *levelIterator) Next() bool    { return it.it.Next() }
func (it *levelIterator) Key() []byte   { return it.it.Key() }
func (it *levelIterator) Value() []byte { return it.it.Value() }
func (it *levelIterator) Error() error  { return it.it.Error() }
func (it *levelIterator) Release()      { it.it.Release() }

type batch struct {
	db *Database
	b  *leveldb.Batch
}

func (d *Database) NewBatch() storage.Batch {
	return &batch{db: d, b: new(leveldb.Batch)}
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) ValueSize() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	return b.db.db.Write(b.b, nil)
}

func (b *batch) Reset() {
	b.b.Reset()
}

// IsNotFound reports whether err is goleveldb's not-found sentinel,
// exposed so callers that import this package directly (rather than
// going through storage.ErrNotFound) can still recognize it.
func IsNotFound(err error) bool {
	return errors.IsNotFound(err)
}
