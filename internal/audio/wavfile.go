package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/mgoltzsche/vad-monitor/internal/model"
)

// FileInput emits the contents of a 16-bit WAV file as fixed-duration blocks.
type FileInput struct {
	Path          string
	SampleRate    int
	BlockDuration time.Duration
	QueueSize     int
}

// RecordBlocks reads the WAV file and emits its samples as mono blocks.
// The trailing block is zero-padded to the full block size.
func (i *FileInput) RecordBlocks(ctx context.Context) (<-chan model.Block, error) {
	f, err := os.Open(i.Path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	samples, err := ReadWav(f, i.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", i.Path, err)
	}

	slog.Info(fmt.Sprintf("using audio input file %q, %d samples", i.Path, len(samples)))

	blocks := splitIntoBlocks(samples, framesPerBlock(i.SampleRate, i.BlockDuration))
	ch := make(chan model.Block, max(i.QueueSize, 1))

	go func() {
		defer close(ch)

		for seq, samples := range blocks {
			block := model.Block{
				Seq:        int64(seq),
				Samples:    samples,
				SampleRate: i.SampleRate,
				CapturedAt: time.Now(),
			}

			select {
			case ch <- block:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// ReadWav decodes 16-bit WAV data into mono samples within [-1, 1] at the given sample rate.
func ReadWav(r io.ReadSeeker, sampleRate int) ([]float32, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return nil, fmt.Errorf("read wave file headers: %w", err)
	}

	if decoder.NumChans < 1 {
		return nil, fmt.Errorf("wave data without audio channels provided")
	}

	if decoder.SampleRate == 0 {
		return nil, fmt.Errorf("wave data with invalid sample rate %d provided", decoder.SampleRate)
	}

	if decoder.SampleBitDepth() != 16 {
		return nil, fmt.Errorf("wave data with unsupported bit depth of %d provided, expected 16", decoder.SampleBitDepth())
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read full pcm buffer: %w", err)
	}

	channels := int(decoder.NumChans)
	interleaved := make([]float32, len(buffer.Data))
	for i, v := range buffer.Data {
		interleaved[i] = float32(v) / 32768
	}

	mono := downmixInterleaved(interleaved, channels, len(interleaved)/max(channels, 1))

	return resampleRate(mono, int(decoder.SampleRate), sampleRate), nil
}

func splitIntoBlocks(samples []float32, blockSize int) [][]float32 {
	blocks := make([][]float32, 0, (len(samples)+blockSize-1)/blockSize)
	for start := 0; start < len(samples); start += blockSize {
		block := make([]float32, blockSize)
		copy(block, samples[start:min(start+blockSize, len(samples))])
		blocks = append(blocks, block)
	}
	return blocks
}
