package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/mgoltzsche/vad-monitor/internal/model"
)

// Input captures fixed-duration blocks from an audio input device.
type Input struct {
	Device        string
	SampleRate    int
	BlockDuration time.Duration
	QueueSize     int
}

// RecordBlocks opens the audio input device and emits full blocks of mono samples into the returned channel.
// The channel is closed after the stream has been released, once the context is done.
func (o *Input) RecordBlocks(ctx context.Context) (<-chan model.Block, error) {
	device, err := inputDevice(o.Device)
	if err != nil {
		return nil, err
	}

	blockSize := framesPerBlock(o.SampleRate, o.BlockDuration)
	in := make([]float32, framesPerBlock(int(device.DefaultSampleRate), o.BlockDuration))
	audioStream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      device.DefaultSampleRate,
		FramesPerBuffer: len(in),
	}, in)
	if err != nil {
		return nil, fmt.Errorf("opening audio input stream: %w", err)
	}

	err = audioStream.Start()
	if err != nil {
		audioStream.Close()
		return nil, fmt.Errorf("starting audio input stream: %w", err)
	}

	ch := make(chan model.Block, max(o.QueueSize, 1))

	go func() {
		defer close(ch)
		defer func() {
			if err := audioStream.Stop(); err != nil {
				slog.Warn("failed to stop input audio stream", "err", err)
			}
			if err := audioStream.Close(); err != nil {
				slog.Warn("failed to close input audio stream", "err", err)
			}
		}()

		var seq int64

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			err := readBlock(ctx, audioStream.Read, readRetryDelay)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("giving up reading the audio input stream", "err", err)
				}
				return
			}

			block := model.Block{
				Seq:        seq,
				Samples:    resample(in, blockSize),
				SampleRate: o.SampleRate,
				CapturedAt: time.Now(),
			}
			seq++

			if !enqueue(ctx, ch, block) && ctx.Err() == nil {
				slog.Warn("block queue is full - dropping block", "seq", block.Seq)
			}
		}
	}()

	return ch, nil
}

const (
	maxReadFailures = 10
	readRetryDelay  = 100 * time.Millisecond
)

// readBlock fills the stream buffer, retrying failed reads.
// An overflow still yields a full buffer and only loses samples, so it is not retried.
func readBlock(ctx context.Context, read func() error, retryDelay time.Duration) error {
	var err error

	for failures := 0; failures < maxReadFailures; failures++ {
		err = read()
		if err == nil {
			return nil
		}

		if errors.Is(err, portaudio.InputOverflowed) {
			slog.Warn("⚠️ audio input overflowed - dropped samples")
			return nil
		}

		slog.Warn("failed to read audio stream", "err", err)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("read audio stream: %d consecutive failures: %w", maxReadFailures, err)
}

// enqueue sends the block unless the queue is full or the context is done.
func enqueue(ctx context.Context, ch chan<- model.Block, block model.Block) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	select {
	case ch <- block:
		return true
	default:
		return false
	}
}

func framesPerBlock(sampleRate int, blockDuration time.Duration) int {
	return int(math.Round(float64(sampleRate) * blockDuration.Seconds()))
}
