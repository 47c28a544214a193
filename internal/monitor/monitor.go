package monitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mgoltzsche/vad-monitor/internal/model"
	"github.com/mgoltzsche/vad-monitor/internal/pubsub"
	"github.com/mgoltzsche/vad-monitor/internal/recorder"
	"github.com/mgoltzsche/vad-monitor/internal/report"
)

type Source interface {
	RecordBlocks(ctx context.Context) (<-chan model.Block, error)
}

type Classifier interface {
	DetectVoiceActivity(ctx context.Context, blocks <-chan model.Block) (<-chan model.Result, error)
}

type Summary struct {
	Blocks       int
	SpeechBlocks int
}

// Monitor classifies the blocks of an audio source and reports whether they contain speech.
type Monitor struct {
	Source     Source
	Classifier Classifier
	Printer    *report.Printer
	// Recorder is optional.
	Recorder *recorder.Recorder
}

// Run blocks until the source is exhausted or the context is done and all captured blocks were classified.
func (m *Monitor) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	// Consumers must not be canceled before the results of the remaining blocks have been published.
	consumerCtx := context.WithoutCancel(ctx)
	results := pubsub.New[model.Result]()
	printed := m.Printer.PrintResults(results.Subscribe(consumerCtx).ResultChan())
	done := []<-chan struct{}{printed}

	if m.Recorder != nil {
		recorded, err := m.Recorder.RecordSpeech(results.Subscribe(consumerCtx).ResultChan())
		if err != nil {
			results.Stop()
			return summary, err
		}
		done = append(done, recorded)
	}

	defer func() {
		results.Stop()
		for _, ch := range done {
			<-ch
		}
	}()

	blocks, err := m.Source.RecordBlocks(ctx)
	if err != nil {
		return summary, fmt.Errorf("record audio: %w", err)
	}

	classified, err := m.Classifier.DetectVoiceActivity(ctx, blocks)
	if err != nil {
		drain(blocks)
		return summary, fmt.Errorf("detect voice activity: %w", err)
	}

	m.Printer.Listening()

	for r := range classified {
		summary.Blocks++
		if r.SpeechDetected() {
			summary.SpeechBlocks++
		}

		results.Publish(r)
	}

	slog.Debug("classified all blocks", "blocks", summary.Blocks, "speechBlocks", summary.SpeechBlocks)

	return summary, nil
}

func drain[E any](ch <-chan E) {
	go func() {
		for range ch {
		}
	}()
}
