package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestMap_BasicOperations(t *testing.T) {
	m := New[int]()

	t.Run("set and get", func(t *testing.T) {
		m.Set("a", 1)
		if v, ok := m.Get("a"); !ok || v != 1 {
			t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, ok := m.Get("nope"); ok {
			t.Error("Get(nope) should not exist")
		}
	})

	t.Run("pop", func(t *testing.T) {
		m.Set("b", 2)
		if v, ok := m.Pop("b"); !ok || v != 2 {
			t.Errorf("Pop(b) = %d, %v; want 2, true", v, ok)
		}
		if m.Has("b") {
			t.Error("b should be gone after Pop")
		}
		if _, ok := m.Pop("b"); ok {
			t.Error("second Pop should report absent")
		}
	})

	t.Run("get or set", func(t *testing.T) {
		v, loaded := m.GetOrSet("c", 3)
		if loaded || v != 3 {
			t.Errorf("GetOrSet(c, 3) = %d, %v; want 3, false", v, loaded)
		}
		v, loaded = m.GetOrSet("c", 99)
		if !loaded || v != 3 {
			t.Errorf("GetOrSet(c, 99) = %d, %v; want 3, true", v, loaded)
		}
	})
}

func TestMap_NonPowerOfTwoShards(t *testing.T) {
	m := NewWithShards[string](7)
	m.Set("k", "v")
	if v, ok := m.Get("k"); !ok || v != "v" {
		t.Errorf("Get(k) = %q, %v", v, ok)
	}
}

func TestMap_RangeAndCount(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	if got := m.Count(); got != 100 {
		t.Errorf("Count() = %d, want 100", got)
	}

	seen := 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return true
	})
	if seen != 100 {
		t.Errorf("Range visited %d items, want 100", seen)
	}

	// Early stop
	seen = 0
	m.Range(func(_ string, _ int) bool {
		seen++
		return seen < 10
	})
	if seen != 10 {
		t.Errorf("Range with early stop visited %d items, want 10", seen)
	}

	m.Clear()
	if got := m.Count(); got != 0 {
		t.Errorf("Count() after Clear = %d, want 0", got)
	}
}

func TestMap_ConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i)
				m.Set(key, i)
				if v, ok := m.Get(key); !ok || v != i {
					t.Errorf("Get(%s) = %d, %v", key, v, ok)
				}
			}
		}(g)
	}
	wg.Wait()

	if got := m.Count(); got != 8*200 {
		t.Errorf("Count() = %d, want %d", got, 8*200)
	}
}
