package audio

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResample(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    []float32
		length   int
		expected []float32
	}{
		{"empty", nil, 3, []float32{0, 0, 0}},
		{"same length", []float32{0.1, 0.2}, 2, []float32{0.1, 0.2}},
		{"upsample", []float32{0, 1}, 3, []float32{0, 0.5, 1}},
		{"downsample", []float32{0, 0.5, 1, 0.5, 0}, 3, []float32{0, 1, 0}},
		{"single output sample", []float32{0.3, 0.6}, 1, []float32{0.3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual := resample(tc.input, tc.length)
			require.Len(t, actual, tc.length)
			require.InDeltaSlice(t, tc.expected, actual, 1e-6)
		})
	}
}

func TestResampleCopiesInput(t *testing.T) {
	input := []float32{0.1, 0.2}
	output := resample(input, 2)
	input[0] = 0.9
	require.Equal(t, float32(0.1), output[0], "output must not share memory with the input")
}

func TestResampleRate(t *testing.T) {
	input := make([]float32, 44100)
	require.Len(t, resampleRate(input, 44100, 16000), 16000)
	require.Len(t, resampleRate(input, 44100, 44100), 44100)
}

func TestDownmixInterleavedMono(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4}
	got := downmixInterleaved(input, 1, len(input))

	require.Equal(t, input, got)
	require.NotSame(t, &input[0], &got[0], "mono result should be copied into a new slice")
}

func TestDownmixInterleavedStereo(t *testing.T) {
	input := []float32{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}

	got := downmixInterleaved(input, 2, 4)

	require.Equal(t, []float32{0.5, 0.5, 0.5, 0.0}, got)
}

func TestDownmixInterleavedMoreChannels(t *testing.T) {
	input := []float32{
		1, 3, 5,
		2, 4, 6,
	}

	require.Equal(t, []float32{3, 4}, downmixInterleaved(input, 3, 2))
}

func TestFloat32ToInt16(t *testing.T) {
	require.Equal(t, []int{0, 32767, -32767, 32767, -32767, 16384}, float32ToInt16([]float32{0, 1, -1, 2, -2, 0.5}))
}

func TestEncodeWavReadWav(t *testing.T) {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	b, err := EncodeWav(samples, 16000)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(b[:4]))

	decoded, err := ReadWav(bytes.NewReader(b), 16000)
	require.NoError(t, err)
	require.Len(t, decoded, len(samples))
	require.InDeltaSlice(t, samples, decoded, 1e-3)

	decoded, err = ReadWav(bytes.NewReader(b), 8000)
	require.NoError(t, err)
	require.Len(t, decoded, 800, "resampled length")
}

func TestReadWavInvalid(t *testing.T) {
	_, err := ReadWav(bytes.NewReader([]byte("not a wave file")), 16000)
	require.Error(t, err)
}

func TestReadWavZeroSampleRate(t *testing.T) {
	b, err := EncodeWav(make([]float32, 1600), 16000)
	require.NoError(t, err)

	// sample rate and byte rate fields of the fmt chunk
	for i := 24; i < 32; i++ {
		b[i] = 0
	}

	require.NotPanics(t, func() {
		_, err = ReadWav(bytes.NewReader(b), 16000)
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid sample rate")
}
