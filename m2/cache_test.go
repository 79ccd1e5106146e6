package m2

import (
	"sync"
	"testing"
)

func TestCache(t *testing.T) {
	tm := newTestModel(256)
	tm.array(68, 1, vertexBytes([3]float32{1, 2, 3}, [4]uint8{255}, [4]uint8{}, [3]float32{0, 1, 0}, [2]float32{}))

	c := NewCache(nil)
	var wg sync.WaitGroup
	models := make([]*Model, 8)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := c.Parse(tm.buf)
			if err != nil {
				t.Error(err)
			}
			models[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range models {
		if m == nil || m != models[0] {
			t.Fatal("cached model should be shared")
		}
	}
	if c.Len() != 1 {
		t.Error("cache size", c.Len())
	}

	other := append([]byte{}, tm.buf...)
	other[4] = 1 // version
	m, err := c.Parse(other)
	if err != nil || m == models[0] || c.Len() != 2 {
		t.Error("different content should be decoded separately", err, c.Len())
	}

	if _, err := c.Parse([]byte("MD20")); err == nil || c.Len() != 2 {
		t.Error("failed parses are not cached", err, c.Len())
	}
}
