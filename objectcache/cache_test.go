package objectcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type first struct{ n int }

type second struct{ n int }

type initialised struct {
	calls int
	ready bool
}

func (i *initialised) Init() {
	i.calls++
	i.ready = true
}

func TestGetOrCreateSameType(t *testing.T) {
	c := New()

	a := GetOrCreate[first](c)
	b := GetOrCreate[first](c)

	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCreateDistinctTypes(t *testing.T) {
	c := New()

	a := GetOrCreate[first](c)
	b := GetOrCreate[second](c)

	assert.NotEqual(t, any(a), any(b))
	assert.Equal(t, 2, c.Len())
}

func TestGetOrCreateSeparateCaches(t *testing.T) {
	a := GetOrCreate[first](New())
	b := GetOrCreate[first](New())

	assert.NotSame(t, a, b)
}

func TestGetOrCreateInitialiser(t *testing.T) {
	c := New()

	v := GetOrCreate[initialised](c)
	require.True(t, v.ready)
	GetOrCreate[initialised](c)
	assert.Equal(t, 1, v.calls)
}

func TestGetOrCreateZeroValueCache(t *testing.T) {
	var c Cache
	assert.Same(t, GetOrCreate[first](&c), GetOrCreate[first](&c))
}

func TestGetOrCreateConcurrent(t *testing.T) {
	c := New()
	const callers = 32

	results := make([]*initialised, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = GetOrCreate[initialised](c)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, results[0].calls)
}
