package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/require"

	"github.com/mgoltzsche/vad-monitor/internal/model"
)

func TestEnqueue(t *testing.T) {
	ch := make(chan model.Block, 2)

	require.True(t, enqueue(context.Background(), ch, model.Block{Seq: 0}))
	require.True(t, enqueue(context.Background(), ch, model.Block{Seq: 1}))
	require.False(t, enqueue(context.Background(), ch, model.Block{Seq: 2}), "queue is full")
	require.Len(t, ch, 2, "queued blocks")

	require.Equal(t, int64(0), (<-ch).Seq)
	require.Equal(t, int64(1), (<-ch).Seq, "newest block should be dropped")
}

func TestEnqueueCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := make(chan model.Block, 1)

	require.False(t, enqueue(ctx, ch, model.Block{}))
	require.Len(t, ch, 0, "queued blocks")
}

func TestReadBlock(t *testing.T) {
	for _, tc := range []struct {
		name          string
		errs          []error
		expectErr     bool
		expectedCalls int
	}{
		{"success", nil, false, 1},
		{"overflow", []error{portaudio.InputOverflowed}, false, 1},
		{"recovers", []error{errors.New("fake error"), errors.New("fake error")}, false, 3},
		{"persistent failure", repeat(errors.New("device unplugged"), maxReadFailures+5), true, maxReadFailures},
	} {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			read := func() error {
				defer func() { calls++ }()
				if calls < len(tc.errs) {
					return tc.errs[calls]
				}
				return nil
			}

			err := readBlock(context.Background(), read, time.Millisecond)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.expectedCalls, calls, "read calls")
		})
	}
}

func TestReadBlockCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := readBlock(ctx, func() error {
		calls++
		return errors.New("fake error")
	}, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls, "read calls")
}

func repeat(err error, n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}
