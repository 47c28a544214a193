// Package report prints the human-readable status lines of the monitor.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mgoltzsche/vad-monitor/internal/model"
)

type Printer struct {
	Out   io.Writer
	Color bool
}

func (p *Printer) Listening() {
	fmt.Fprintln(p.Out, "🎙️ Listening... Press Ctrl+C to stop.")
}

func (p *Printer) Stopped() {
	fmt.Fprintln(p.Out, "\n🛑 Stopped.")
}

// PrintResult prints whether the result's block contains speech.
func (p *Printer) PrintResult(r model.Result) {
	if r.SpeechDetected() {
		p.colored(color.FgGreen).Fprintf(p.Out, "🟢 Speech detected at %s\n", r.Segments)
	} else {
		p.colored(color.FgRed).Fprintln(p.Out, "🔴 Silence")
	}
}

// PrintResults prints every result of the channel and closes the returned channel when the input is closed.
func (p *Printer) PrintResults(results <-chan model.Result) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		for r := range results {
			p.PrintResult(r)
		}
	}()

	return done
}

func (p *Printer) colored(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if p.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
