package common

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDint64Unique(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64]struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				id := UUIDint64()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 4000)
}

func TestUUIDint64Ordered(t *testing.T) {
	a := UUIDint64()
	b := UUIDint64()
	assert.Less(t, a, b)
}

func TestStringHelpers(t *testing.T) {
	assert.True(t, IsEmpty("  "))
	assert.Equal(t, "x", IfEmptyStr(" ", "x"))
	assert.Equal(t, "y", IfEmptyStr("y", "x"))
	assert.True(t, InSlice("mint", []string{"candy", "mint"}))
	assert.False(t, InSlice("gum", nil))
}
