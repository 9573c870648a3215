package engine

import (
	"errors"
	"testing"
)

func TestGetSetDel(t *testing.T) {
	e := New()

	if _, ok, _ := e.Get("foo"); ok {
		t.Fatalf("Get(foo) on empty engine returned ok=true")
	}

	e.Set("foo", []byte("bar"))
	v, ok, err := e.Get("foo")
	if err != nil || !ok || string(v) != "bar" {
		t.Fatalf("Get(foo) = (%q, %v, %v), want (bar, true, nil)", v, ok, err)
	}

	if !e.Del("foo") {
		t.Fatalf("Del(foo) = false, want true")
	}
	if _, ok, _ := e.Get("foo"); ok {
		t.Fatalf("Get(foo) after Del returned ok=true")
	}
	if e.Del("foo") {
		t.Fatalf("second Del(foo) = true, want false")
	}
}

func TestKeys(t *testing.T) {
	e := New()
	e.Set("a", []byte("1"))
	e.Set("b", []byte("2"))
	e.Set("c", []byte("3"))

	keys := e.Keys()
	if len(keys) != 3 {
		t.Fatalf("Keys() = %v, want 3 entries", keys)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Fatalf("Keys() missing %q: %v", want, keys)
		}
	}
}

func TestZAddAndZRange(t *testing.T) {
	e := New()

	added, err := e.ZAdd("z", []ScorePair{
		{Score: 1, Member: "a"},
		{Score: 2, Member: "b"},
		{Score: 1.5, Member: "c"},
	})
	if err != nil || added != 3 {
		t.Fatalf("ZAdd() = (%d, %v), want (3, nil)", added, err)
	}

	members, err := e.ZRange("z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error: %v", err)
	}
	want := []string{"a", "c", "b"}
	if len(members) != len(want) {
		t.Fatalf("ZRange() = %v, want members %v", members, want)
	}
	for i, m := range members {
		if m.Name != want[i] {
			t.Fatalf("ZRange()[%d] = %q, want %q", i, m.Name, want[i])
		}
	}

	added, err = e.ZAdd("z", []ScorePair{{Score: 0.5, Member: "c"}})
	if err != nil || added != 0 {
		t.Fatalf("ZAdd update = (%d, %v), want (0, nil)", added, err)
	}

	members, _ = e.ZRange("z", 0, 0)
	if len(members) != 1 || members[0].Name != "c" {
		t.Fatalf("ZRange(0,0) after update = %v, want first element c", members)
	}
}

func TestZAddOnStringKeyIsWrongType(t *testing.T) {
	e := New()
	e.Set("z", []byte("not a set"))

	if _, err := e.ZAdd("z", []ScorePair{{Score: 1, Member: "a"}}); !errors.Is(err, ErrWrongType) {
		t.Fatalf("ZAdd on string key error = %v, want ErrWrongType", err)
	}
}

func TestGetOnSortedSetIsWrongType(t *testing.T) {
	e := New()
	e.ZAdd("z", []ScorePair{{Score: 1, Member: "a"}})

	if _, _, err := e.Get("z"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("Get on sorted-set key error = %v, want ErrWrongType", err)
	}
}

func TestZRemAndZRangeOnMissingKey(t *testing.T) {
	e := New()

	removed, err := e.ZRem("missing", []string{"a"})
	if err != nil || removed != 0 {
		t.Fatalf("ZRem on missing key = (%d, %v), want (0, nil)", removed, err)
	}

	members, err := e.ZRange("missing", 0, -1)
	if err != nil || members != nil {
		t.Fatalf("ZRange on missing key = (%v, %v), want (nil, nil)", members, err)
	}
}
