package cli

import (
	"flag"
	"fmt"
	"log/slog"
)

func addLogLevelFlag(flags *flag.FlagSet) {
	if flags.Lookup("log-level") != nil {
		return
	}

	flags.Var(logLevelFlag("INFO"), "log-level", "set the log level")
}

type logLevelFlag string

func (logLevelFlag) Set(s string) error {
	level, err := parseLogLevel(s)
	if err != nil {
		return err
	}

	slog.SetLogLoggerLevel(level)

	return nil
}

func (f logLevelFlag) String() string {
	return string(f)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q provided. supported log levels are DEBUG, INFO, WARN, ERROR", s)
	}
}
