package ringlog

import "testing"

func TestRingBelowCapacity(t *testing.T) {
	r := New[int](5)
	r.Push(1)
	r.Push(2)
	r.Push(3)

	if r.Len() != 3 {
		t.Fatalf("Expected length 3, got %d", r.Len())
	}
	got := r.Recent(10)
	want := []int{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

func TestRingWraparound(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 7; i++ {
		r.Push(i)
	}

	if r.Len() != 3 {
		t.Fatalf("Expected length capped at 3, got %d", r.Len())
	}
	got := r.Recent(3)
	want := []int{7, 6, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v after wraparound, got %v", want, got)
		}
	}
}

func TestRingRecentLimit(t *testing.T) {
	r := New[int](4)
	for i := 1; i <= 4; i++ {
		r.Push(i)
	}

	got := r.Recent(2)
	if len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Errorf("Expected [4 3], got %v", got)
	}
	if got := r.Recent(0); len(got) != 0 {
		t.Errorf("Expected empty slice for limit 0, got %v", got)
	}
	if got := r.Recent(-1); len(got) != 0 {
		t.Errorf("Expected empty slice for negative limit, got %v", got)
	}
}

func TestRingMinimumCapacity(t *testing.T) {
	r := New[string](0)
	if r.Capacity() != 1 {
		t.Fatalf("Expected capacity clamped to 1, got %d", r.Capacity())
	}
	r.Push("a")
	r.Push("b")
	got := r.Recent(5)
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("Expected only the newest entry, got %v", got)
	}
}
