package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestEnvironment_SetIsCopyOnWrite(t *testing.T) {
	base := NewEnvironment().Set("r0", NewMedium("draw a cat"))
	next := base.Set("r1", NewMedium(42))

	if base.Has("r1") {
		t.Fatal("Set mutated the previous environment")
	}
	if base.Len() != 1 {
		t.Errorf("base.Len() = %d, want 1", base.Len())
	}
	if next.Len() != 2 {
		t.Errorf("next.Len() = %d, want 2", next.Len())
	}

	m, err := next.Get("r0")
	if err != nil {
		t.Fatalf("Get(r0) failed: %v", err)
	}
	if m.Value != "draw a cat" {
		t.Errorf("Get(r0) = %v, want 'draw a cat'", m.Value)
	}
}

func TestEnvironment_Overwrite(t *testing.T) {
	env := NewEnvironment().Set("r0", NewMedium("first"))
	overwritten := env.Set("r0", NewMedium("second"))

	old, _ := env.Get("r0")
	cur, _ := overwritten.Get("r0")
	if old.Value != "first" || cur.Value != "second" {
		t.Errorf("got old=%v cur=%v, want first/second", old.Value, cur.Value)
	}
	if overwritten.Len() != 1 {
		t.Errorf("overwrite must not add registers, Len() = %d", overwritten.Len())
	}
}

func TestEnvironment_GetMissing(t *testing.T) {
	var env Environment // zero value is usable

	_, err := env.Get("ghost")
	if err == nil {
		t.Fatal("expected error reading unwritten register")
	}
	if !errors.Is(err, ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) || lookupErr.Address != "ghost" {
		t.Errorf("expected LookupError for 'ghost', got %#v", err)
	}
}

func TestEnvironment_AddressesAndSnapshot(t *testing.T) {
	env := NewEnvironment().
		Set("r2", NewMedium([]int{1, 2, 3})).
		Set("r0", NewMedium("a")).
		Set("r1", NewMedium(true))

	want := []Address{"r0", "r1", "r2"}
	if got := env.Addresses(); !reflect.DeepEqual(got, want) {
		t.Errorf("Addresses() = %v, want %v", got, want)
	}

	snap := env.Snapshot()
	if !reflect.DeepEqual(snap["r2"], []int{1, 2, 3}) {
		t.Errorf("Snapshot()[r2] = %v", snap["r2"])
	}
}
