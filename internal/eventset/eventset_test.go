package eventset

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntSet_InsertAndContains(t *testing.T) {
	s := New()
	assert.False(t, s.Contains(7))

	s.Insert(7)
	assert.True(t, s.Contains(7))
	assert.Equal(t, 1, s.Len())
}

func TestIntSet_InsertIsIdempotent(t *testing.T) {
	s := New()
	s.Insert(3)
	s.Insert(3)
	assert.Equal(t, 1, s.Len())
}

func TestIntSet_ConcurrentInsert(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			s.Insert(id)
		}(uint64(i))
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len())
}
