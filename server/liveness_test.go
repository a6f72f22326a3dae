package server

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLivenessCountsDownToZero(t *testing.T) {
	l := NewLiveness(2)
	assert.False(t, l.Zero())

	assert.True(t, l.Drop())
	assert.Equal(t, 1, l.Load())
	assert.True(t, l.Drop())
	assert.True(t, l.Zero())

	// 归零之后继续递减是无害的空操作
	assert.False(t, l.Drop())
	assert.Equal(t, 0, l.Load())
}

func TestLivenessNeverNegativeUnderContention(t *testing.T) {
	l := NewLiveness(10)
	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Drop() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(10), wins.Load())
	assert.Equal(t, 0, l.Load())
}

func TestLivenessWithNoPeersIsZero(t *testing.T) {
	assert.True(t, NewLiveness(0).Zero())
}
