// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package contrived

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNext_EveryNth(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10} {
		inj := New(n)
		for call := 1; call <= 2*n; call++ {
			require.Equal(t, call%n == 0, inj.Next(), "n=%d call=%d", n, call)
		}
	}
}

func TestNext_Disabled(t *testing.T) {
	for _, inj := range []*Injector{New(0), New(-5), nil, {}} {
		for i := 0; i < 100; i++ {
			require.False(t, inj.Next())
		}
	}
}

func TestNext_ConcurrentCountIsExact(t *testing.T) {
	inj := New(7)
	var fired atomic.Int32
	var wg sync.WaitGroup

	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 70; i++ {
				if inj.Next() {
					fired.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(100), fired.Load())
}
