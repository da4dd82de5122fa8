package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEach_DeterministicPlacement(t *testing.T) {
	out := make([]int, 100)
	err := ForEach(context.Background(), len(out), 8, func(i int) error {
		out[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestForEach_PropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int64
	err := ForEach(context.Background(), 50, 4, func(i int) error {
		calls.Add(1)
		if i == 10 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestForEach_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ForEach(ctx, 10, 2, func(i int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForEach_EmptyAndSerial(t *testing.T) {
	assert.NoError(t, ForEach(context.Background(), 0, 4, nil))

	var n int
	require.NoError(t, ForEach(context.Background(), 5, 1, func(i int) error {
		n++
		return nil
	}))
	assert.Equal(t, 5, n)
}
