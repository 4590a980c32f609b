package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	const items = 1000
	var visited [items]int32

	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&visited[i], 1)
		}
	})

	for i, n := range visited {
		if n != 1 {
			t.Fatalf("item %d visited %d times, want exactly 1", i, n)
		}
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) { called = true })
	if called {
		t.Error("fn must not be called for zero items")
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 10 {
			t.Errorf("sequential path got range (%d, %d), want (0, 10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("below threshold should run in a single chunk, got %d calls", calls)
	}
}

func TestForEachVisitsEveryIndex(t *testing.T) {
	const items = 257
	var sum int64
	ForEach(items, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	want := int64(items * (items - 1) / 2)
	if sum != want {
		t.Errorf("index sum = %d, want %d", sum, want)
	}
}
