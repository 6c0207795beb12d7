package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file. Flags given on the command line
// take precedence over it.
//
//	format: json
//	trace_db: ./traces.db
//	input_encoding: windows-1252
//	strict: true
//	names: ignore-case
//	byte_order: big
//	encoding: utf-16le
//	layouts: ./layouts
type Config struct {
	Verbose bool   `yaml:"verbose"`
	Format  string `yaml:"format"`
	TraceDB string `yaml:"trace_db"`

	// InputEncoding is the encoding text input files are read in.
	InputEncoding string `yaml:"input_encoding"`
	Strict        bool   `yaml:"strict"`
	Names         string `yaml:"names"`

	// Binary decoding defaults.
	ByteOrder string `yaml:"byte_order"`
	Encoding  string `yaml:"encoding"`
	Layouts   string `yaml:"layouts"`
}

// LoadConfig reads a configuration file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		// An empty file is an empty configuration.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
