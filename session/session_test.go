package session_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/sigrok"
	"pipelined.dev/sigrok/capture"
	"pipelined.dev/sigrok/mock"
	"pipelined.dev/sigrok/session"
)

const tomlConfig = `
output = "ann"
filter = "warnings"

[[decoder]]
id = "uart"

[decoder.options]
baud = 115200
parity = "none"

[decoder.pins]
rx = 0
tx = 1

[[decoder]]
id = "spi"
`

const yamlConfig = `
output: binary
filter: tx
decoders:
  - id: uart
    options:
      baud: 9600
      divider: 2.0
      ratio: 2.5
    pins:
      rx: 3
  - id: spi
`

func table() session.Constructors {
	return session.Constructors{
		"uart": func() sigrok.Decoder { return &mock.Decoder{} },
		"spi":  func() sigrok.Decoder { return &mock.Stacked{} },
	}
}

func TestParseTOML(t *testing.T) {
	c, err := session.Parse(strings.NewReader(tomlConfig), session.TOML)
	assert.Nil(t, err)
	assert.Equal(t, "ann", c.Output)
	assert.Equal(t, "warnings", c.Filter)
	assert.Equal(t, 2, len(c.Decoders))
	assert.Equal(t, "uart", c.Decoders[0].ID)
	assert.Equal(t, map[string]int{"rx": 0, "tx": 1}, c.Decoders[0].Pins)
	assert.Equal(t, "spi", c.Decoders[1].ID)

	specs, err := c.Specs(table())
	assert.Nil(t, err)
	assert.Equal(t, 2, len(specs))
	assert.NotNil(t, specs[0].New)
	assert.Equal(t, 115200, specs[0].Options["baud"])
	assert.Equal(t, "none", specs[0].Options["parity"])
}

func TestParseYAML(t *testing.T) {
	c, err := session.Parse(strings.NewReader(yamlConfig), session.YAML)
	assert.Nil(t, err)
	assert.Equal(t, "binary", c.Output)
	assert.Equal(t, "tx", c.Filter)
	assert.Equal(t, 2, len(c.Decoders))
	assert.Equal(t, map[string]int{"rx": 3}, c.Decoders[0].Pins)

	specs, err := c.Specs(table())
	assert.Nil(t, err)
	// whole numbers land as int, fractions stay floats
	assert.Equal(t, 9600, specs[0].Options["baud"])
	assert.Equal(t, 2, specs[0].Options["divider"])
	assert.Equal(t, 2.5, specs[0].Options["ratio"])
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := session.Parse(strings.NewReader(""), session.Format(9))
	assert.NotNil(t, err)
}

func TestKind(t *testing.T) {
	tests := []struct {
		output string
		kind   sigrok.OutputType
		fails  bool
	}{
		{"", sigrok.OutputAnn, false},
		{"ann", sigrok.OutputAnn, false},
		{"chained", sigrok.OutputChained, false},
		{"binary", sigrok.OutputBinary, false},
		{"logic", sigrok.OutputLogic, false},
		{"meta", sigrok.OutputMeta, false},
		{"annotations", 0, true},
	}
	for _, tt := range tests {
		kind, err := session.Config{Output: tt.output}.Kind()
		if tt.fails {
			assert.NotNil(t, err, tt.output)
			continue
		}
		assert.Nil(t, err, tt.output)
		assert.Equal(t, tt.kind, kind, tt.output)
	}
}

func TestUnknownDecoder(t *testing.T) {
	c := session.Config{Decoders: []session.Decoder{{ID: "nope"}}}
	_, err := c.Specs(table())
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown decoder")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "stack.toml")
	assert.Nil(t, os.WriteFile(path, []byte(tomlConfig), 0o644))
	c, err := session.Load(path)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(c.Decoders))

	path = filepath.Join(dir, "stack.yaml")
	assert.Nil(t, os.WriteFile(path, []byte(yamlConfig), 0o644))
	c, err = session.Load(path)
	assert.Nil(t, err)
	assert.Equal(t, "binary", c.Output)

	path = filepath.Join(dir, "stack.json")
	assert.Nil(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err = session.Load(path)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown config extension")

	_, err = session.Load(filepath.Join(dir, "missing.toml"))
	assert.NotNil(t, err)
}

// A parsed config builds a runnable stack; options passed to Stack win
// over the configured ones.
func TestStack(t *testing.T) {
	cfg := `
[[decoder]]
id = "counter"

[decoder.pins]
d0 = 0
`
	c, err := session.Parse(strings.NewReader(cfg), session.TOML)
	assert.Nil(t, err)

	low := &mock.Decoder{Limit: 2, Annotate: true}
	sink := &mock.Sink{}
	s, err := c.Stack(sink, session.Constructors{
		"counter": func() sigrok.Decoder { return low },
	})
	assert.Nil(t, err)
	assert.Nil(t, s.Run(capture.New(0, 0, 1, 0)))
	assert.Equal(t, 2, len(sink.ByKind(sigrok.OutputAnn)))

	low = &mock.Decoder{Limit: 2, Annotate: true}
	sink = &mock.Sink{}
	s, err = c.Stack(sink, session.Constructors{
		"counter": func() sigrok.Decoder { return low },
	}, sigrok.WithOutput(sigrok.OutputChained, ""))
	assert.Nil(t, err)
	assert.Nil(t, s.Run(capture.New(0, 0, 1, 0)))
	assert.Equal(t, 2, len(sink.ByKind(sigrok.OutputChained)))
	assert.Equal(t, 0, len(sink.ByKind(sigrok.OutputAnn)))
}

func TestStackUnknownKind(t *testing.T) {
	c := session.Config{Output: "nope"}
	_, err := c.Stack(&mock.Sink{}, table())
	assert.NotNil(t, err)
}
