package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendSnapshotOrder(t *testing.T) {
	h := NewHistory[int]()
	for i := 0; i < 50; i++ {
		assert.Equal(t, i, h.Append(i))
	}

	snap := h.Snapshot()
	assert.Len(t, snap, 50)
	for i, v := range snap {
		assert.Equal(t, i, v)
	}
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := NewHistory[string]()
	h.Append("a")

	snap := h.Snapshot()
	snap[0] = "mutated"
	h.Append("b")

	assert.Equal(t, []string{"a", "b"}, h.Snapshot())
	assert.Len(t, snap, 1)
}

func TestHistory_ResetIdempotent(t *testing.T) {
	h := NewHistory[int]()
	for i := 0; i < 5; i++ {
		h.Append(i)
	}

	h.Reset()
	assert.Empty(t, h.Snapshot())
	h.Reset()
	assert.Equal(t, 0, h.Len())

	h.Append(7)
	assert.Equal(t, []int{7}, h.Snapshot())
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	h := NewHistory[int]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.Append(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, h.Len())
}
