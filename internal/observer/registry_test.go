package observer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryOrder(t *testing.T) {
	var r Registry
	var got []string
	r.Add(func() { got = append(got, "a") })
	id := r.Add(func() { got = append(got, "b") })
	r.Add(func() { got = append(got, "c") })

	r.Notify()
	if !r.Remove(id) {
		t.Fatal("Remove reported unknown handle")
	}
	if r.Remove(id) {
		t.Error("second Remove of the same handle succeeded")
	}
	r.Notify()

	want := []string{"a", "b", "c", "a", "c"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("notification order (-want +got):\n%s", d)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistryRemoveDuringNotify(t *testing.T) {
	var r Registry
	calls := 0
	var self ID
	self = r.Add(func() {
		calls++
		r.Remove(self)
	})
	r.Add(func() { calls++ })

	r.Notify()
	r.Notify()
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSameFuncTwiceIsTwoListeners(t *testing.T) {
	var r Registry
	n := 0
	fn := func() { n++ }
	a := r.Add(fn)
	r.Add(fn)
	r.Remove(a)
	r.Notify()
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
}
