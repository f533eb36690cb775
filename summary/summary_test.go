package summary

import (
	"testing"

	"github.com/taintcheck/ffianalyzer/lattice"
)

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()
	tainted := lattice.Tainted
	key := NewKey("my_crate::f", []ArgState{&tainted, nil})

	c := NewCache()
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected miss on empty cache")
	}

	want := Summary{RetState: lattice.Forgotten}
	c.Insert(key, want)
	got, ok := c.Get(key)
	if !ok || got.RetState != want.RetState {
		t.Fatalf("expected cache hit with RetState %v, got %v (ok=%v)", want.RetState, got.RetState, ok)
	}
}

func TestKeyDistinguishesArgumentStates(t *testing.T) {
	t.Parallel()
	tainted := lattice.Tainted
	forgotten := lattice.Forgotten

	k1 := NewKey("my_crate::f", []ArgState{&tainted})
	k2 := NewKey("my_crate::f", []ArgState{&forgotten})
	if k1 == k2 {
		t.Fatalf("keys with different argument states should differ")
	}

	k3 := NewKey("my_crate::f", []ArgState{&tainted})
	if k1 != k3 {
		t.Fatalf("keys built from equal inputs should be equal")
	}
}
