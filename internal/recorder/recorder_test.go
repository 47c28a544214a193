package recorder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mgoltzsche/vad-monitor/internal/audio"
	"github.com/mgoltzsche/vad-monitor/internal/model"
)

func block(seq int64, value float32) model.Block {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = value
	}
	return model.Block{Seq: seq, Samples: samples, SampleRate: 1000}
}

func TestRecordSpeech(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "speech")
	testee := &Recorder{Dir: dir}

	results := make(chan model.Result, 6)
	results <- model.Result{Block: block(0, 0)}
	results <- model.Result{Block: block(1, 0.5), Segments: model.Segments{{Start: 0.5, End: 1}}}
	results <- model.Result{Block: block(2, 0.25), Segments: model.Segments{{Start: 0, End: 0.1}, {Start: 0.9, End: 2}}}
	results <- model.Result{Block: block(3, 0)}
	results <- model.Result{Block: block(4, 0.5), Segments: model.Segments{{Start: 0, End: 0.3}}}
	close(results)

	done, err := testee.RecordSpeech(results)
	require.NoError(t, err)
	<-done

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"speech-000001.wav", "speech-000004.wav"}, names)

	f, err := os.Open(filepath.Join(dir, "speech-000001.wav"))
	require.NoError(t, err)
	defer f.Close()

	samples, err := audio.ReadWav(f, 1000)
	require.NoError(t, err)
	require.Len(t, samples, 500+100+100)
	require.InDelta(t, 0.5, samples[0], 1e-3)
	require.InDelta(t, 0.25, samples[699], 1e-3)
}

func TestRecordSpeechWithoutSpeech(t *testing.T) {
	dir := t.TempDir()
	testee := &Recorder{Dir: dir}

	results := make(chan model.Result, 1)
	results <- model.Result{Block: block(0, 0)}
	close(results)

	done, err := testee.RecordSpeech(results)
	require.NoError(t, err)
	<-done

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
