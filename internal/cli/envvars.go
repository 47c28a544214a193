package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlagsWithEnvVars parses the given arguments after applying the environment variables
// that correspond to the registered flags, e.g. VAD_MONITOR_BLOCK_DURATION for -block-duration.
func ParseFlagsWithEnvVars(flags *flag.FlagSet, envVarPrefix string, args []string) error {
	addLogLevelFlag(flags)

	supportedEnvVars := map[string]struct{}{}
	var err error

	flags.VisitAll(func(f *flag.Flag) {
		envVarName := EnvVarName(envVarPrefix, f.Name)
		f.Usage = fmt.Sprintf("%s (%s)", f.Usage, envVarName)
		supportedEnvVars[envVarName] = struct{}{}

		if envVarValue := os.Getenv(envVarName); envVarValue != "" && err == nil {
			f.DefValue = envVarValue
			if e := f.Value.Set(envVarValue); e != nil {
				err = fmt.Errorf("invalid environment variable %s value %q provided: %w", envVarName, envVarValue, e)
			}
		}
	})

	if err != nil {
		return err
	}

	err = flags.Parse(args)
	if err != nil {
		return err
	}

	for _, entry := range os.Environ() {
		if strings.HasPrefix(entry, envVarPrefix) {
			kv := strings.SplitN(entry, "=", 2)
			if _, ok := supportedEnvVars[kv[0]]; !ok {
				return fmt.Errorf("unsupported environment variable provided: %s", kv[0])
			}
		}
	}

	return nil
}

func EnvVarName(prefix, flagName string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
