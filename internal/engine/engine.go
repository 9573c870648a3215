// Package engine implements the data engine: a hash table of DataEntry
// records whose value is either a plain string or a sorted set. It is the
// sole owner of all engine state and is only ever touched by the single
// event-loop goroutine.
package engine

import (
	"errors"

	"github.com/lovelydayss/goredis-kernel/internal/hashtable"
	"github.com/lovelydayss/goredis-kernel/internal/sortedset"
)

// ErrWrongType is returned when a command's target key holds a value of a
// different kind than the command expects.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

type valueKind int

const (
	kindString valueKind = iota
	kindSortedSet
)

// entry is the record stored inside the engine's hash table: a key plus its
// value, which is either a string or a sorted set.
type entry struct {
	key  string
	kind valueKind

	str  []byte
	zset *sortedset.Set
}

func stringHash(s string) uint64 {
	var h uint64 = 0xcdf29ce484222325
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 0x100000001b3
	}
	return h
}

// Engine is the key space: a hash table mapping key -> entry.
type Engine struct {
	data *hashtable.Table[*entry]
}

// New returns an empty engine using the hash table's default rehash
// tuning.
func New() *Engine {
	return &Engine{data: hashtable.New[*entry]()}
}

// NewWithTuning returns an empty engine whose key-space hash table uses
// migrationBudget and loadFactor in place of the package defaults. Zero or
// negative values fall back to those defaults.
func NewWithTuning(migrationBudget int, loadFactor float64) *Engine {
	return &Engine{data: hashtable.NewWithTuning[*entry](migrationBudget, loadFactor)}
}

func (e *Engine) lookup(key string) *entry {
	v, ok := e.data.Lookup(stringHash(key), func(stored *entry) bool { return stored.key == key })
	if !ok {
		return nil
	}
	return v
}

// Get returns the string value at key. ok is false if the key is absent;
// err is ErrWrongType if key holds a sorted set.
func (e *Engine) Get(key string) (value []byte, ok bool, err error) {
	ent := e.lookup(key)
	if ent == nil {
		return nil, false, nil
	}
	if ent.kind != kindString {
		return nil, false, ErrWrongType
	}
	return ent.str, true, nil
}

// Set stores value as a plain string at key, overwriting any previous
// value regardless of its kind.
func (e *Engine) Set(key string, value []byte) {
	h := stringHash(key)
	e.data.Remove(h, func(stored *entry) bool { return stored.key == key })
	e.data.Insert(h, &entry{key: key, kind: kindString, str: value})
}

// Del removes key, reporting whether it was present.
func (e *Engine) Del(key string) bool {
	h := stringHash(key)
	_, ok := e.data.Remove(h, func(stored *entry) bool { return stored.key == key })
	return ok
}

// Keys returns every key currently stored. The engine is only ever scanned
// from the event-loop goroutine with no mutation interleaved, so ForEach's
// at-most-once guarantee (see hashtable.Table.ForEach) holds here too: no
// key is reported twice even if a rehash is in progress.
func (e *Engine) Keys() []string {
	out := make([]string, 0, e.data.Size())
	e.data.ForEach(func(ent *entry) {
		out = append(out, ent.key)
	})
	return out
}

// zsetFor returns the sorted set at key, creating it if absent. err is
// ErrWrongType if key already holds a string.
func (e *Engine) zsetFor(key string) (*sortedset.Set, error) {
	ent := e.lookup(key)
	if ent == nil {
		ent = &entry{key: key, kind: kindSortedSet, zset: sortedset.New()}
		e.data.Insert(stringHash(key), ent)
		return ent.zset, nil
	}
	if ent.kind != kindSortedSet {
		return nil, ErrWrongType
	}
	return ent.zset, nil
}

// zsetAt returns the sorted set at key if it exists and is actually a
// sorted set; a nil set with ok=false means the key is simply absent.
func (e *Engine) zsetAt(key string) (set *sortedset.Set, ok bool, err error) {
	ent := e.lookup(key)
	if ent == nil {
		return nil, false, nil
	}
	if ent.kind != kindSortedSet {
		return nil, false, ErrWrongType
	}
	return ent.zset, true, nil
}

// ScorePair is one (score, member) argument to ZAdd.
type ScorePair struct {
	Score  float64
	Member string
}

// ZAdd applies every pair to the sorted set at key (creating it if
// needed), returning the count of genuinely new members added.
func (e *Engine) ZAdd(key string, pairs []ScorePair) (added int64, err error) {
	set, err := e.zsetFor(key)
	if err != nil {
		return 0, err
	}

	for _, p := range pairs {
		if set.Add(p.Score, p.Member) {
			added++
		}
	}
	return added, nil
}

// ZRem removes each member from the sorted set at key, returning the count
// actually removed. A missing key behaves as an empty set (removes 0).
func (e *Engine) ZRem(key string, members []string) (removed int64, err error) {
	set, ok, err := e.zsetAt(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	for _, m := range members {
		if set.Remove(m) {
			removed++
		}
	}
	return removed, nil
}

// ZRange returns the members in [start, stop] (Redis-style negative
// indices) of the sorted set at key. A missing key yields an empty slice.
func (e *Engine) ZRange(key string, start, stop int) ([]sortedset.Member, error) {
	set, ok, err := e.zsetAt(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return set.Range(start, stop), nil
}

// Size returns the number of keys in the engine.
func (e *Engine) Size() int {
	return e.data.Size()
}
