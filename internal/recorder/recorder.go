// Package recorder stores detected speech as WAV files.
package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mgoltzsche/vad-monitor/internal/audio"
	"github.com/mgoltzsche/vad-monitor/internal/model"
)

// Recorder concatenates the speech segments of consecutive speech blocks
// and writes them into a single WAV file once a silent block follows.
type Recorder struct {
	Dir string
}

// RecordSpeech consumes the results and returns a channel that is closed after the last file has been written.
func (r *Recorder) RecordSpeech(results <-chan model.Result) (<-chan struct{}, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create speech directory: %w", err)
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		var current *utterance

		for result := range results {
			if !result.SpeechDetected() {
				r.save(current)
				current = nil
				continue
			}

			if current == nil {
				current = &utterance{
					firstSeq:   result.Block.Seq,
					sampleRate: result.Block.SampleRate,
				}
			}

			current.add(result)
		}

		r.save(current)
	}()

	return done, nil
}

func (r *Recorder) save(u *utterance) {
	if u == nil || len(u.samples) == 0 {
		return
	}

	file := filepath.Join(r.Dir, fmt.Sprintf("speech-%06d.wav", u.firstSeq))

	err := writeWavFile(file, u.samples, u.sampleRate)
	if err != nil {
		slog.Error(fmt.Sprintf("save speech: %s", err))
		return
	}

	slog.Info("saved speech", "file", file, "blocks", u.blocks)
}

func writeWavFile(file string, samples []float32, sampleRate int) error {
	b, err := audio.EncodeWav(samples, sampleRate)
	if err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}

	tmpFile := file + ".tmp"

	if err := os.WriteFile(tmpFile, b, 0o644); err != nil {
		return fmt.Errorf("write wav file: %w", err)
	}

	if err := os.Rename(tmpFile, file); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("rename wav file: %w", err)
	}

	return nil
}

type utterance struct {
	firstSeq   int64
	sampleRate int
	blocks     int
	samples    []float32
}

// add appends the speech segments of the result's block.
func (u *utterance) add(result model.Result) {
	samples := result.Block.Samples
	rate := float64(result.Block.SampleRate)

	for _, seg := range result.Segments {
		start := min(max(int(seg.Start*rate), 0), len(samples))
		end := min(max(int(seg.End*rate), start), len(samples))
		u.samples = append(u.samples, samples[start:end]...)
	}

	u.blocks++
}
