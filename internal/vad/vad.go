package vad

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/mgoltzsche/vad-monitor/internal/model"
)

// SpeechDetector is the subset of the Silero detector API used to classify blocks.
type SpeechDetector interface {
	Detect(pcm []float32) ([]speech.Segment, error)
	Reset() error
	Destroy() error
}

type Detector struct {
	ModelPath            string
	SampleRate           int
	Threshold            float32
	MinSilenceDurationMs int
	SpeechPadMs          int
	MinSpeechDuration    time.Duration
	// Throttle makes the detector wait for one block duration after each classification.
	Throttle bool

	newSpeechDetector func(speech.DetectorConfig) (SpeechDetector, error)
}

func newSileroDetector(cfg speech.DetectorConfig) (SpeechDetector, error) {
	return speech.NewDetector(cfg)
}

// DetectVoiceActivity classifies every block of the given input channel and emits a result per block.
func (d *Detector) DetectVoiceActivity(ctx context.Context, input <-chan model.Block) (<-chan model.Result, error) {
	newDetector := d.newSpeechDetector
	if newDetector == nil {
		newDetector = newSileroDetector
	}

	sileroVAD, err := newDetector(speech.DetectorConfig{
		ModelPath:            d.ModelPath,
		SampleRate:           d.SampleRate,
		Threshold:            d.Threshold,
		MinSilenceDurationMs: d.MinSilenceDurationMs,
		SpeechPadMs:          d.SpeechPadMs,
	})
	if err != nil {
		return nil, fmt.Errorf("create silero vad: %w", err)
	}

	ch := make(chan model.Result, 10)

	go func() {
		defer func() {
			if err := sileroVAD.Destroy(); err != nil {
				slog.Warn(fmt.Sprintf("destroy silero vad: %v", err))
			}
			close(ch)
		}()

		for block := range input {
			result, err := d.classify(sileroVAD, block)
			if err != nil {
				slog.Warn("failed to detect voice activity", "seq", block.Seq, "err", err)
				continue
			}

			slog.Debug(fmt.Sprintf("voice activity detected: %v (took %s)", result.SpeechDetected(), result.Took), "seq", block.Seq)

			ch <- result

			if d.Throttle {
				select {
				case <-time.After(block.Duration()):
				case <-ctx.Done():
				}
			}
		}
	}()

	return ch, nil
}

// classify detects the speech segments within a single block.
// The model state is reset afterwards so that every block is classified independently.
func (d *Detector) classify(sileroVAD SpeechDetector, block model.Block) (model.Result, error) {
	start := time.Now()

	segments, err := sileroVAD.Detect(block.Samples)

	if resetErr := sileroVAD.Reset(); resetErr != nil && err == nil {
		err = fmt.Errorf("reset detector state: %w", resetErr)
	}

	if err != nil {
		return model.Result{}, err
	}

	return model.Result{
		Block:    block,
		Segments: d.toSegments(segments, block.Duration().Seconds()),
		Took:     time.Since(start),
	}, nil
}

func (d *Detector) toSegments(segments []speech.Segment, blockDuration float64) model.Segments {
	result := make(model.Segments, 0, len(segments))

	for _, s := range segments {
		seg := model.Segment{Start: s.SpeechStartAt, End: s.SpeechEndAt}

		// speech still ongoing at the end of the block
		if seg.End <= seg.Start {
			seg.End = blockDuration
		}

		if d.unpaddedDuration(seg, blockDuration) < d.MinSpeechDuration {
			continue
		}

		result = append(result, seg)
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// unpaddedDuration subtracts the speech padding the model added to the segment.
// Padding is only known to be complete where it was not clipped at the block boundaries.
func (d *Detector) unpaddedDuration(seg model.Segment, blockDuration float64) time.Duration {
	pad := time.Duration(d.SpeechPadMs) * time.Millisecond
	duration := seg.Duration()

	if seg.Start > 0 {
		duration -= pad
	}

	if seg.End < blockDuration {
		duration -= pad
	}

	return duration
}
