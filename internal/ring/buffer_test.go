package ring

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func TestBufferPushEvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 3; i++ {
		if _, ok := b.Push(i); ok {
			t.Fatalf("unexpected eviction at %d", i)
		}
	}
	if !b.Full() {
		t.Fatalf("expected full buffer")
	}
	ev, ok := b.Push(4)
	if !ok || ev != 1 {
		t.Fatalf("expected eviction of 1, got %d %v", ev, ok)
	}
	if got := b.Values(); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Fatalf("unexpected values %v", got)
	}
	if Sum(b) != 9 {
		t.Fatalf("unexpected sum %d", Sum(b))
	}
}

func TestBufferEmptyAndReset(t *testing.T) {
	b := New[float64](0)
	if b.Cap() != 1 {
		t.Fatalf("capacity should be clamped to 1, got %d", b.Cap())
	}
	if b.Values() != nil {
		t.Fatalf("empty buffer should return nil")
	}
	b.Push(1.5)
	b.Reset()
	if b.Len() != 0 || Sum(b) != 0 {
		t.Fatalf("reset should clear buffer")
	}
}

func TestBufferResize(t *testing.T) {
	b := New[int](5)
	for i := 1; i <= 7; i++ {
		b.Push(i)
	}
	b.Resize(3)
	if got := b.Values(); !reflect.DeepEqual(got, []int{5, 6, 7}) {
		t.Fatalf("shrink should keep newest, got %v", got)
	}
	b.Resize(6)
	b.Push(8)
	if got := b.Values(); !reflect.DeepEqual(got, []int{5, 6, 7, 8}) {
		t.Fatalf("grow should keep order, got %v", got)
	}
}

func TestBufferMatchesSliceModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		vals := rapid.SliceOf(rapid.IntRange(-100, 100)).Draw(t, "vals")

		b := New[int](capacity)
		var model []int
		for _, v := range vals {
			b.Push(v)
			model = append(model, v)
			if len(model) > capacity {
				model = model[1:]
			}
			if b.Len() > capacity {
				t.Fatalf("len %d exceeds capacity %d", b.Len(), capacity)
			}
		}
		got := b.Values()
		if len(model) == 0 {
			if got != nil {
				t.Fatalf("expected nil, got %v", got)
			}
			return
		}
		if !reflect.DeepEqual(got, model) {
			t.Fatalf("buffer %v != model %v", got, model)
		}
	})
}
