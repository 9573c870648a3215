// Package sortedset implements a Redis-style sorted set: a collection of
// (score, member) pairs with O(log n) lookup either by member or by rank.
// It pairs a hashtable.Table, keyed on the member string, with an
// avltree.Tree ordered by (score, member).
package sortedset

import (
	"strconv"

	"github.com/lovelydayss/goredis-kernel/internal/avltree"
	"github.com/lovelydayss/goredis-kernel/internal/hashtable"
)

type entry struct {
	member string
	score  float64
}

func hashMember(member string) uint64 {
	var h uint64 = 0xcdf29ce484222325
	for i := 0; i < len(member); i++ {
		h ^= uint64(member[i])
		h *= 0x100000001b3
	}
	return h
}

func cmpEntries(a, b entry) int {
	if a.score < b.score {
		return -1
	}
	if a.score > b.score {
		return 1
	}
	if a.member < b.member {
		return -1
	}
	if a.member > b.member {
		return 1
	}
	return 0
}

// Set is a sorted set: pairs A (member -> score) with B (score, member)
// ordered. Both structures always agree on membership and score, matching
// invariants.
type Set struct {
	byMember *hashtable.Table[entry]
	byScore  *avltree.Tree[entry]
}

// New returns an empty sorted set.
func New() *Set {
	return &Set{
		byMember: hashtable.New[entry](),
		byScore:  avltree.New[entry](cmpEntries),
	}
}

// Len reports the number of members.
func (s *Set) Len() int {
	return s.byMember.Size()
}

// Add inserts or updates (score, member). It returns true if member was not
// previously present (a genuinely new member), matching upstream Redis
// ZADD semantics. Updating an existing member's score returns false even
// though the set did change.
func (s *Set) Add(score float64, member string) (added bool) {
	h := hashMember(member)

	existing, ok := s.byMember.Lookup(h, func(e entry) bool { return e.member == member })
	if !ok {
		s.byMember.Insert(h, entry{member: member, score: score})
		s.byScore.Insert(entry{member: member, score: score})
		return true
	}

	if existing.score == score {
		return false
	}

	s.byMember.Remove(h, func(e entry) bool { return e.member == member })
	s.byMember.Insert(h, entry{member: member, score: score})

	s.byScore.Remove(existing)
	s.byScore.Insert(entry{member: member, score: score})
	return false
}

// Remove deletes member, reporting whether it was present.
func (s *Set) Remove(member string) bool {
	h := hashMember(member)

	existing, ok := s.byMember.Remove(h, func(e entry) bool { return e.member == member })
	if !ok {
		return false
	}

	s.byScore.Remove(existing)
	return true
}

// Score returns member's current score, if present.
func (s *Set) Score(member string) (float64, bool) {
	h := hashMember(member)
	e, ok := s.byMember.Lookup(h, func(e entry) bool { return e.member == member })
	return e.score, ok
}

// Member is one (member, score) pair as returned by Range.
type Member struct {
	Name  string
	Score float64
}

// Range resolves start/stop with Redis-style negative indexing (relative to
// the end of the set) and returns the members in that inclusive range,
// ordered by (score, member).
func (s *Set) Range(start, stop int) []Member {
	n := s.Len()
	if n == 0 {
		return nil
	}

	start = resolveIndex(start, n)
	stop = resolveIndex(stop, n)

	if start < 0 {
		start = 0
	}
	if stop > n-1 {
		stop = n - 1
	}
	if start > stop {
		return nil
	}

	count := stop - start + 1
	out := make([]Member, 0, count)
	s.byScore.Range(start, count, func(e entry) {
		out = append(out, Member{Name: e.member, Score: e.score})
	})
	return out
}

func resolveIndex(i, n int) int {
	if i < 0 {
		i = n + i
	}
	return i
}

// FormatScore renders a score the way ZRANGE emits it on the wire: a
// decimal string that round-trips exactly, avoiding any binary
// floating-point representation on the wire.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}
