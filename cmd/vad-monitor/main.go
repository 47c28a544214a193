package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/mgoltzsche/vad-monitor/internal/audio"
	"github.com/mgoltzsche/vad-monitor/internal/cli"
	"github.com/mgoltzsche/vad-monitor/internal/hub"
	"github.com/mgoltzsche/vad-monitor/internal/monitor"
	"github.com/mgoltzsche/vad-monitor/internal/recorder"
	"github.com/mgoltzsche/vad-monitor/internal/report"
	"github.com/mgoltzsche/vad-monitor/internal/vad"
	"github.com/mgoltzsche/vad-monitor/pkg/config"
)

// Derived from https://github.com/snakers4/silero-vad/blob/master/examples/go/cmd/main.go

func main() {
	configFile := "/etc/vad-monitor/config.yaml"
	cfg, configErr := config.FromFile(configFile)
	if errors.Is(configErr, fs.ErrNotExist) {
		cfg, configErr = config.Defaults(), nil
	}
	configFlag := &config.Flag{File: configFile, Config: &cfg}
	listDevices := false

	flags := flag.CommandLine
	flags.Var(configFlag, "config", "Path to the configuration file")
	flags.BoolVar(&listDevices, "list-devices", false, "list the available audio devices and exit")
	flags.StringVar(&cfg.InputDevice, "input-device", cfg.InputDevice, "name or ID or the audio input device")
	flags.StringVar(&cfg.InputFile, "input-file", cfg.InputFile, "path to a 16-bit WAV file to classify instead of the audio input device")
	flags.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "sample rate the VAD model is fed with (8000 or 16000)")
	flags.Float64Var(&cfg.BlockDuration, "block-duration", cfg.BlockDuration, "duration of a classified audio block in seconds")
	flags.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "max number of captured blocks waiting to be classified")
	flags.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "speech probability threshold")
	flags.IntVar(&cfg.MinSpeechDurationMs, "min-speech-duration-ms", cfg.MinSpeechDurationMs, "speech segments shorter than this are ignored")
	flags.IntVar(&cfg.MinSilenceDurationMs, "min-silence-duration-ms", cfg.MinSilenceDurationMs, "silence required to end a speech segment")
	flags.IntVar(&cfg.SpeechPadMs, "speech-pad-ms", cfg.SpeechPadMs, "padding added to both sides of a speech segment")
	flags.StringVar(&cfg.ModelURL, "model-url", cfg.ModelURL, "URL the VAD model is downloaded from")
	flags.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "path to the VAD model (skips the download)")
	flags.StringVar(&cfg.ModelDir, "model-dir", cfg.ModelDir, "directory the downloaded VAD model is cached in")
	flags.BoolVar(&cfg.Throttle, "throttle", cfg.Throttle, "wait for a block duration after each classification")
	flags.StringVar(&cfg.SpeechDir, "speech-dir", cfg.SpeechDir, "directory to save detected speech into as WAV files")
	flags.BoolVar(&cfg.Color, "color", cfg.Color, "colorize the status output")

	err := cli.ParseFlagsWithEnvVars(flags, "VAD_MONITOR_", os.Args[1:])
	if err != nil {
		flags.Usage()
		log.Fatal(err)
	}

	if configErr != nil && !configFlag.IsSet {
		log.Fatal(configErr)
	}

	if cfg.InputFile == "" || listDevices {
		if err := portaudio.Initialize(); err != nil {
			log.Fatal(fmt.Errorf("initialize portaudio: %w", err))
		}
		defer portaudio.Terminate()
	}

	if listDevices {
		if err := audio.ListDevices(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(fmt.Errorf("invalid configuration: %w", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runMonitor(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
}

func runMonitor(ctx context.Context, cfg config.Configuration) error {
	modelPath := cfg.ModelPath
	if modelPath == "" {
		loader := &hub.Loader{
			URL:    cfg.ModelURL,
			Dir:    cfg.ModelDir,
			Client: &http.Client{Timeout: 5 * time.Minute},
		}

		p, err := loader.ModelPath(ctx)
		if err != nil {
			return fmt.Errorf("load vad model: %w", err)
		}

		modelPath = p
	}

	var source monitor.Source = &audio.Input{
		Device:        cfg.InputDevice,
		SampleRate:    cfg.SampleRate,
		BlockDuration: cfg.BlockInterval(),
		QueueSize:     cfg.QueueSize,
	}
	if cfg.InputFile != "" {
		source = &audio.FileInput{
			Path:          cfg.InputFile,
			SampleRate:    cfg.SampleRate,
			BlockDuration: cfg.BlockInterval(),
			QueueSize:     cfg.QueueSize,
		}
	}

	printer := &report.Printer{
		Out:   os.Stdout,
		Color: cfg.Color,
	}

	m := &monitor.Monitor{
		Source: source,
		Classifier: &vad.Detector{
			ModelPath:            modelPath,
			SampleRate:           cfg.SampleRate,
			Threshold:            float32(cfg.Threshold),
			MinSilenceDurationMs: cfg.MinSilenceDurationMs,
			SpeechPadMs:          cfg.SpeechPadMs,
			MinSpeechDuration:    time.Duration(cfg.MinSpeechDurationMs) * time.Millisecond,
			Throttle:             cfg.Throttle,
		},
		Printer: printer,
	}

	if cfg.SpeechDir != "" {
		m.Recorder = &recorder.Recorder{Dir: cfg.SpeechDir}
	}

	summary, err := m.Run(ctx)
	if err != nil {
		return err
	}

	printer.Stopped()

	log.Printf("classified %d blocks, %d with speech", summary.Blocks, summary.SpeechBlocks)

	return nil
}
