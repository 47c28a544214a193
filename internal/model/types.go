package model

import (
	"fmt"
	"strings"
	"time"
)

// Block is a fixed-size chunk of mono samples captured from an audio source.
type Block struct {
	Seq        int64
	Samples    []float32
	SampleRate int
	CapturedAt time.Time
}

func (b Block) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Segment is a speech time range in seconds, relative to the start of its block.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s Segment) Duration() time.Duration {
	return time.Duration((s.End - s.Start) * float64(time.Second))
}

func (s Segment) String() string {
	return fmt.Sprintf("{start: %.1f, end: %.1f}", s.Start, s.End)
}

type Segments []Segment

func (s Segments) String() string {
	parts := make([]string, len(s))
	for i, seg := range s {
		parts[i] = seg.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Result is the classification of a single block.
type Result struct {
	Block    Block
	Segments Segments
	Took     time.Duration
}

func (r Result) SpeechDetected() bool {
	return len(r.Segments) > 0
}
