package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDUnique(t *testing.T) {
	const perGoroutine = 1000
	const goroutines = 8

	var mu sync.Mutex
	seen := make(map[int64]struct{}, perGoroutine*goroutines)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	// 并发生成不允许出现重复
	assert.Len(t, seen, perGoroutine*goroutines)
}

func TestNextIDMonotonic(t *testing.T) {
	prev := NextID()
	for i := 0; i < 100; i++ {
		id := NextID()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestGenerateTransferNo(t *testing.T) {
	no := GenerateTransferNo()
	assert.True(t, strings.HasPrefix(no, "TRF"))
	assert.Len(t, no, len("TRF")+14+8)

	assert.NotEqual(t, GenerateTransferNo(), GenerateTransferNo())
}

func TestGenerateFlowNo(t *testing.T) {
	no := GenerateFlowNo()
	assert.True(t, strings.HasPrefix(no, "FLW"))
	assert.Len(t, no, len("FLW")+14+8)
}
