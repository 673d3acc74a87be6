package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryAttempts(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	a := NewMemoryAttempts(2, 10*time.Minute)
	a.Now = c.Now

	wait, err := a.Locked(ctx, "ada@uni.edu")
	require.NoError(t, err)
	require.Zero(t, wait)

	require.NoError(t, a.Fail(ctx, "ada@uni.edu"))
	wait, _ = a.Locked(ctx, "ada@uni.edu")
	require.Zero(t, wait)

	c.Advance(time.Minute)
	require.NoError(t, a.Fail(ctx, "ada@uni.edu"))
	wait, _ = a.Locked(ctx, "ada@uni.edu")
	require.Equal(t, 9*time.Minute, wait)

	wait, _ = a.Locked(ctx, "other@uni.edu")
	require.Zero(t, wait, "keys are independent")

	c.Advance(9 * time.Minute)
	wait, _ = a.Locked(ctx, "ada@uni.edu")
	require.Zero(t, wait, "window elapsed")

	require.NoError(t, a.Fail(ctx, "ada@uni.edu"))
	require.NoError(t, a.Fail(ctx, "ada@uni.edu"))
	require.NoError(t, a.Reset(ctx, "ada@uni.edu"))
	wait, _ = a.Locked(ctx, "ada@uni.edu")
	require.Zero(t, wait)
}

func TestMemoryAttempts_PrunesElapsedWindows(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	a := NewMemoryAttempts(5, 10*time.Minute)
	a.Now = c.Now

	for i := range 100 {
		require.NoError(t, a.Fail(ctx, fmt.Sprintf("user%d@uni.edu", i)))
	}
	require.Len(t, a.windows, 100)

	c.Advance(10 * time.Minute)
	require.NoError(t, a.Fail(ctx, "ada@uni.edu"))
	require.Len(t, a.windows, 1)

	wait, err := a.Locked(ctx, "ada@uni.edu")
	require.NoError(t, err)
	require.Zero(t, wait)
}

func TestNewMemoryAttempts_Defaults(t *testing.T) {
	a := NewMemoryAttempts(0, 0)
	require.Equal(t, DefaultMaxLoginFailures, a.Max)
	require.Equal(t, DefaultLockoutWindow, a.Window)
}
