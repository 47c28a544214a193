package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mgoltzsche/vad-monitor/internal/model"
)

func TestFileInputRecordBlocks(t *testing.T) {
	samples := make([]float32, 2500)
	for i := range samples {
		samples[i] = 0.25
	}

	b, err := EncodeWav(samples, 16000)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "input.wav")
	err = os.WriteFile(file, b, 0o644)
	require.NoError(t, err)

	testee := &FileInput{
		Path:          file,
		SampleRate:    16000,
		BlockDuration: 64 * time.Millisecond,
		QueueSize:     2,
	}

	ch, err := testee.RecordBlocks(context.Background())
	require.NoError(t, err)

	blocks := []model.Block{}
	for block := range ch {
		blocks = append(blocks, block)
	}

	require.Len(t, blocks, 3)
	for i, block := range blocks {
		require.Equal(t, int64(i), block.Seq, "seq")
		require.Equal(t, 16000, block.SampleRate, "sample rate")
		require.Len(t, block.Samples, 1024, "block size")
	}
	require.InDelta(t, 0.25, blocks[2].Samples[2500-2048-1], 1e-3, "last sample of the file")
	require.Equal(t, float32(0), blocks[2].Samples[2500-2048], "zero padding")
}

func TestFileInputRecordBlocksCanceled(t *testing.T) {
	b, err := EncodeWav(make([]float32, 16000), 16000)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "input.wav")
	err = os.WriteFile(file, b, 0o644)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	testee := &FileInput{Path: file, SampleRate: 16000, BlockDuration: 32 * time.Millisecond, QueueSize: 1}

	ch, err := testee.RecordBlocks(ctx)
	require.NoError(t, err)

	<-ch
	cancel()

	count := 0
	for range ch {
		count++
	}
	require.Less(t, count, 30, "should stop emitting blocks after cancellation")
}

func TestFileInputMissingFile(t *testing.T) {
	testee := &FileInput{Path: filepath.Join(t.TempDir(), "missing.wav"), SampleRate: 16000, BlockDuration: time.Second}

	_, err := testee.RecordBlocks(context.Background())
	require.Error(t, err)
}

func TestSplitIntoBlocks(t *testing.T) {
	blocks := splitIntoBlocks([]float32{1, 2, 3, 4, 5}, 2)
	require.Equal(t, [][]float32{{1, 2}, {3, 4}, {5, 0}}, blocks)
	require.Empty(t, splitIntoBlocks(nil, 2))
}
