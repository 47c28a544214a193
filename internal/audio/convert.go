package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// resample linearly interpolates the input into a new slice of the given length.
func resample(input []float32, length int) []float32 {
	output := make([]float32, length)
	if len(input) == 0 || length == 0 {
		return output
	}
	if len(input) == length {
		copy(output, input)
		return output
	}

	ratio := float64(len(input)-1) / float64(max(length-1, 1))
	for i := range output {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(input)-1 {
			output[i] = input[len(input)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		output[i] = input[idx]*(1-frac) + input[idx+1]*frac
	}

	return output
}

// resampleRate converts the input from one sample rate to another.
func resampleRate(input []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate {
		return resample(input, len(input))
	}
	length := int(math.Round(float64(len(input)) * float64(toRate) / float64(fromRate)))
	return resample(input, length)
}

// downmixInterleaved averages the channels of interleaved frames into a mono signal.
func downmixInterleaved(input []float32, channels, frames int) []float32 {
	if channels <= 1 {
		output := make([]float32, frames)
		copy(output, input)
		return output
	}

	output := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += input[f*channels+c]
		}
		output[f] = sum / float32(channels)
	}

	return output
}

func float32ToInt16(input []float32) []int {
	output := make([]int, len(input))
	for i, value := range input {
		v := math.Max(-1, math.Min(1, float64(value)))
		output[i] = int(math.Round(v * math.MaxInt16))
	}
	return output
}

// EncodeWav encodes mono float samples as 16-bit RIFF/WAV data.
func EncodeWav(samples []float32, sampleRate int) ([]byte, error) {
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		Data:           float32ToInt16(samples),
		SourceBitDepth: 16,
	}

	wavFile := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(wavFile, sampleRate, 16, 1, 1)

	if err := encoder.Write(buffer); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	riffWav, err := io.ReadAll(wavFile.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading wav into memory: %w", err)
	}

	return riffWav, nil
}
