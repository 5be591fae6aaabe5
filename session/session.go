// Package session loads declarative pipeline configurations.
//
// A session names the decoders of one stack in order, lowest first, with
// their options and pin bindings, and the primary output routed to the
// sink. Decoder ids are resolved against a caller-supplied constructor
// table; this package never discovers or loads decoder code.
package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"pipelined.dev/sigrok"
)

type (
	// Config is one pipeline description.
	Config struct {
		// Output is the primary output kind routed to the sink: "ann",
		// "chained", "binary", "logic" or "meta". Empty means "ann".
		Output string `toml:"output" yaml:"output"`
		// Filter narrows the primary output to one annotation class or
		// binary track.
		Filter string `toml:"filter" yaml:"filter"`
		// Decoders lists the stack, lowest decoder first.
		Decoders []Decoder `toml:"decoder" yaml:"decoders"`
	}

	// Decoder is one stack entry.
	Decoder struct {
		ID      string         `toml:"id" yaml:"id"`
		Options map[string]any `toml:"options" yaml:"options"`
		Pins    map[string]int `toml:"pins" yaml:"pins"`
	}

	// Constructors resolves decoder ids to constructors.
	Constructors map[string]func() sigrok.Decoder
)

// Format selects a config encoding.
type Format int

const (
	// TOML configs declare stack entries as [[decoder]] tables.
	TOML Format = iota
	// YAML configs declare them as a decoders list.
	YAML
)

// Parse reads one config in the given format.
func Parse(r io.Reader, f Format) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("session: read config: %w", err)
	}
	var c Config
	switch f {
	case TOML:
		if err := toml.Unmarshal(raw, &c); err != nil {
			return Config{}, fmt.Errorf("session: parse toml: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return Config{}, fmt.Errorf("session: parse yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("session: unknown format %d", f)
	}
	return c, nil
}

// Load reads a config file, choosing the format by extension: .toml for
// TOML, .yml and .yaml for YAML.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("session: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return Parse(f, TOML)
	case ".yml", ".yaml":
		return Parse(f, YAML)
	}
	return Config{}, fmt.Errorf("session: unknown config extension %q", filepath.Ext(path))
}

// Specs resolves the configured decoders against a constructor table.
// Unknown decoder ids fail.
func (c Config) Specs(table Constructors) ([]sigrok.Spec, error) {
	specs := make([]sigrok.Spec, 0, len(c.Decoders))
	for _, d := range c.Decoders {
		newDecoder, ok := table[d.ID]
		if !ok {
			return nil, fmt.Errorf("session: unknown decoder %q", d.ID)
		}
		specs = append(specs, sigrok.Spec{
			New:     newDecoder,
			Options: normalize(d.Options),
			Pins:    d.Pins,
		})
	}
	return specs, nil
}

// Kind resolves the configured primary output kind.
func (c Config) Kind() (sigrok.OutputType, error) {
	switch c.Output {
	case "", "ann":
		return sigrok.OutputAnn, nil
	case "chained":
		return sigrok.OutputChained, nil
	case "binary":
		return sigrok.OutputBinary, nil
	case "logic":
		return sigrok.OutputLogic, nil
	case "meta":
		return sigrok.OutputMeta, nil
	}
	return 0, fmt.Errorf("session: unknown output kind %q", c.Output)
}

// Stack builds the configured pipeline over a sink. Options given here
// are applied after the config, so they win.
func (c Config) Stack(sink sigrok.Sink, table Constructors, opts ...sigrok.StackOption) (*sigrok.Stack, error) {
	kind, err := c.Kind()
	if err != nil {
		return nil, err
	}
	specs, err := c.Specs(table)
	if err != nil {
		return nil, err
	}
	all := append([]sigrok.StackOption{sigrok.WithOutput(kind, c.Filter)}, opts...)
	return sigrok.NewStack(sink, specs, all...)
}

// normalize converts decoded option values to the types decoder code
// compares against: config integers arrive as int64 or uint64 and land
// as int, whole floats as int too.
func normalize(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]any, len(options))
	for k, v := range options {
		switch n := v.(type) {
		case int64:
			out[k] = int(n)
		case uint64:
			out[k] = int(n)
		case float64:
			if n == float64(int(n)) {
				out[k] = int(n)
			} else {
				out[k] = n
			}
		default:
			out[k] = v
		}
	}
	return out
}
