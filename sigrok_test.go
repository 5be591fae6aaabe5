package sigrok_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/sigrok"
)

func TestCondMatch(t *testing.T) {
	tests := []struct {
		name  string
		cond  sigrok.Cond
		last  sigrok.Sample
		cur   sigrok.Sample
		match bool
	}{
		{"no terms", sigrok.On(sigrok.Triggers{}), 0b10, 0b01, true},
		{"low holds", sigrok.On(sigrok.Triggers{0: sigrok.Low}), 1, 0, true},
		{"low fails", sigrok.On(sigrok.Triggers{0: sigrok.Low}), 0, 1, false},
		{"high holds", sigrok.On(sigrok.Triggers{0: sigrok.High}), 0, 1, true},
		{"high fails", sigrok.On(sigrok.Triggers{0: sigrok.High}), 1, 0, false},
		{"rising", sigrok.On(sigrok.Triggers{0: sigrok.Rising}), 0, 1, true},
		{"rising needs low start", sigrok.On(sigrok.Triggers{0: sigrok.Rising}), 1, 1, false},
		{"falling", sigrok.On(sigrok.Triggers{0: sigrok.Falling}), 1, 0, true},
		{"falling needs high start", sigrok.On(sigrok.Triggers{0: sigrok.Falling}), 0, 0, false},
		{"edge on rise", sigrok.On(sigrok.Triggers{0: sigrok.Edge}), 0, 1, true},
		{"edge on fall", sigrok.On(sigrok.Triggers{0: sigrok.Edge}), 1, 0, true},
		{"no edge", sigrok.On(sigrok.Triggers{0: sigrok.Edge}), 1, 1, false},
		{"stable", sigrok.On(sigrok.Triggers{0: sigrok.Stable}), 1, 1, true},
		{"not stable", sigrok.On(sigrok.Triggers{0: sigrok.Stable}), 1, 0, false},
		{"terms are anded", sigrok.On(sigrok.Triggers{0: sigrok.High, 1: sigrok.Rising}), 0b01, 0b11, true},
		{"one failing term fails all", sigrok.On(sigrok.Triggers{0: sigrok.High, 1: sigrok.Rising}), 0b10, 0b01, false},
		{"other channels ignored", sigrok.On(sigrok.Triggers{3: sigrok.High}), 0, 0b1011, true},
		{"skip pending", sigrok.Skip(3), 0, 0, false},
		{"skip satisfied", sigrok.Skip(0), 0, 0, true},
		{"zero value is a satisfied skip", sigrok.Cond{}, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.cond.Match(tt.last, tt.cur))
		})
	}
}

// On every sample pair exactly one of rising/falling holds when the
// channel changed, edge holds iff one of them does, and stable is the
// complement of edge.
func TestEdgeComplements(t *testing.T) {
	rising := sigrok.On(sigrok.Triggers{0: sigrok.Rising})
	falling := sigrok.On(sigrok.Triggers{0: sigrok.Falling})
	edge := sigrok.On(sigrok.Triggers{0: sigrok.Edge})
	stable := sigrok.On(sigrok.Triggers{0: sigrok.Stable})

	for _, last := range []sigrok.Sample{0, 1} {
		for _, cur := range []sigrok.Sample{0, 1} {
			r := rising.Match(last, cur)
			f := falling.Match(last, cur)
			e := edge.Match(last, cur)
			if last != cur {
				assert.NotEqual(t, r, f, "pair %b->%b", last, cur)
			} else {
				assert.False(t, r || f, "pair %b->%b", last, cur)
			}
			assert.Equal(t, r || f, e, "pair %b->%b", last, cur)
			assert.Equal(t, !e, stable.Match(last, cur), "pair %b->%b", last, cur)
		}
	}
}

func TestIsSkip(t *testing.T) {
	assert.True(t, sigrok.Skip(3).IsSkip())
	assert.True(t, sigrok.Cond{}.IsSkip())
	assert.False(t, sigrok.On(sigrok.Triggers{0: sigrok.High}).IsSkip())
}

func TestSampleBit(t *testing.T) {
	s := sigrok.Sample(0b101)
	assert.Equal(t, sigrok.Level(1), s.Bit(0))
	assert.Equal(t, sigrok.Level(0), s.Bit(1))
	assert.Equal(t, sigrok.Level(1), s.Bit(2))
	assert.Equal(t, sigrok.Level(1), sigrok.Sample(1<<63).Bit(63))
}

func TestTriggerString(t *testing.T) {
	assert.Equal(t, "l", sigrok.Low.String())
	assert.Equal(t, "h", sigrok.High.String())
	assert.Equal(t, "r", sigrok.Rising.String())
	assert.Equal(t, "f", sigrok.Falling.String())
	assert.Equal(t, "e", sigrok.Edge.String())
	assert.Equal(t, "s", sigrok.Stable.String())
	assert.Equal(t, "?", sigrok.Trigger(42).String())
}

func TestOutputTypeString(t *testing.T) {
	assert.Equal(t, "ann", sigrok.OutputAnn.String())
	assert.Equal(t, "chained", sigrok.OutputChained.String())
	assert.Equal(t, "binary", sigrok.OutputBinary.String())
	assert.Equal(t, "logic", sigrok.OutputLogic.String())
	assert.Equal(t, "meta", sigrok.OutputMeta.String())
	assert.Equal(t, "unknown", sigrok.OutputType(42).String())
}

func TestRates(t *testing.T) {
	assert.Equal(t, 24000, sigrok.KHz(24))
	assert.Equal(t, 1000000, sigrok.MHz(1))
}
