package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Sequential(t *testing.T) {
	gen := NewFixedIDGenerator("rec")

	assert.Equal(t, "rec-0001", gen.Generate())
	assert.Equal(t, "rec-0002", gen.Generate())
	assert.Equal(t, "rec-0003", gen.Generate())
}

func TestFixedIDGenerator_DefaultPrefix(t *testing.T) {
	gen := NewFixedIDGenerator("")

	assert.Equal(t, "record-0001", gen.Generate())
}

func TestFixedIDGenerator_ConcurrentUnique(t *testing.T) {
	gen := NewFixedIDGenerator("c")

	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.Generate()
		}()
	}
	wg.Wait()
	close(ids)

	unique := make(map[string]bool)
	for id := range ids {
		assert.False(t, unique[id], "duplicate id %s", id)
		unique[id] = true
	}
	assert.Len(t, unique, n)
}
