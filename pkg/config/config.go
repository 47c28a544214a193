package config

import (
	"fmt"
	"math"
	"time"
)

const DefaultModelURL = "https://github.com/snakers4/silero-vad/raw/master/src/silero_vad/data/silero_vad.onnx"

type Configuration struct {
	InputDevice          string  `json:"inputDevice,omitempty"`
	InputFile            string  `json:"inputFile,omitempty"`
	SampleRate           int     `json:"sampleRate,omitempty"`
	BlockDuration        float64 `json:"blockDuration,omitempty"`
	QueueSize            int     `json:"queueSize,omitempty"`
	Threshold            float64 `json:"threshold,omitempty"`
	MinSpeechDurationMs  int     `json:"minSpeechDurationMs,omitempty"`
	MinSilenceDurationMs int     `json:"minSilenceDurationMs,omitempty"`
	SpeechPadMs          int     `json:"speechPadMs,omitempty"`
	ModelURL             string  `json:"modelURL,omitempty"`
	ModelPath            string  `json:"modelPath,omitempty"`
	ModelDir             string  `json:"modelDir,omitempty"`
	Throttle             bool    `json:"throttle,omitempty"`
	SpeechDir            string  `json:"speechDir,omitempty"`
	Color                bool    `json:"color"`
}

// Defaults returns the configuration used when neither a file nor flags override a value.
// Silero expects 16kHz (or 8kHz) mono input.
func Defaults() Configuration {
	return Configuration{
		SampleRate:           16000,
		BlockDuration:        0.7,
		QueueSize:            10,
		Threshold:            0.5,
		MinSpeechDurationMs:  250,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
		ModelURL:             DefaultModelURL,
		Color:                true,
	}
}

// BlockSize returns the number of samples within a single block.
func (c *Configuration) BlockSize() int {
	return int(math.Round(float64(c.SampleRate) * c.BlockDuration))
}

func (c *Configuration) BlockInterval() time.Duration {
	return time.Duration(c.BlockDuration * float64(time.Second))
}

func (c *Configuration) Validate() error {
	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("sampleRate must be 8000 or 16000, got %d", c.SampleRate)
	}

	if c.BlockDuration <= 0 {
		return fmt.Errorf("blockDuration must be positive, got %f", c.BlockDuration)
	}

	if c.BlockSize() < 512 {
		return fmt.Errorf("blockDuration %.3fs is too short: a block must contain at least 512 samples, got %d", c.BlockDuration, c.BlockSize())
	}

	if c.QueueSize < 1 {
		return fmt.Errorf("queueSize must be at least 1, got %d", c.QueueSize)
	}

	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1 (exclusive), got %f", c.Threshold)
	}

	if c.MinSpeechDurationMs < 0 {
		return fmt.Errorf("minSpeechDurationMs cannot be negative, got %d", c.MinSpeechDurationMs)
	}

	if c.MinSilenceDurationMs < 0 {
		return fmt.Errorf("minSilenceDurationMs cannot be negative, got %d", c.MinSilenceDurationMs)
	}

	if c.SpeechPadMs < 0 {
		return fmt.Errorf("speechPadMs cannot be negative, got %d", c.SpeechPadMs)
	}

	if c.ModelPath == "" && c.ModelURL == "" {
		return fmt.Errorf("either modelPath or modelURL must be specified")
	}

	return nil
}
