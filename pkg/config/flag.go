package config

import "fmt"

// Flag is a flag.Value that replaces the referenced configuration with the contents of the given file.
// Flags that are parsed after -config override the file's values.
type Flag struct {
	File   string
	Config *Configuration
	IsSet  bool
}

func (f *Flag) Set(path string) error {
	cfg, err := FromFile(path)
	if err != nil {
		return fmt.Errorf("-config: %w", err)
	}

	f.File = path
	*f.Config = cfg
	f.IsSet = true

	return nil
}

func (f *Flag) String() string {
	return f.File
}
