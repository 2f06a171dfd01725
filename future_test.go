// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFuture(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	release := make(chan struct{})
	f := Go(ctx, func(context.Context) (int, error) {
		<-release
		return 42, nil
	})

	select {
	case <-f.Done():
		t.Fatal("future resolved early")
	default:
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(short)
	require.ErrorIs(err, context.DeadlineExceeded)

	close(release)
	v, err := f.Get()
	require.NoError(err)
	require.Equal(42, v)

	// Resolved futures keep answering.
	v, err = f.Await(ctx)
	require.NoError(err)
	require.Equal(42, v)
}

func TestFuturePassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := Go(ctx, func(ctx context.Context) (Unit, error) {
		<-ctx.Done()
		return Unit{}, ctx.Err()
	})
	cancel()

	_, err := f.Get()
	require.ErrorIs(t, err, context.Canceled)
}

func TestReady(t *testing.T) {
	errFailed := errors.New("failed")
	_, err := Ready("", errFailed).Get()
	require.Equal(t, errFailed, err)
}
