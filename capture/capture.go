// Package capture provides an in-memory sample stream for decode
// pipelines and decoder tests.
package capture

import (
	"io"

	"pipelined.dev/sigrok"
)

// Capture is an in-memory stream source: a fixed sequence of samples at a
// fixed rate. It implements sigrok.Input and owns the cursor.
type Capture struct {
	samples []sigrok.Sample
	rate    int

	pos     int
	matched []bool
}

// New returns a capture over the given samples. rate is in Hz, zero or
// negative when unknown.
func New(rate int, samples ...sigrok.Sample) *Capture {
	return &Capture{samples: samples, rate: rate, pos: -1}
}

// FromLines builds a capture from per-channel bit strings: line i is
// physical channel i, one character per sample, '1' high, anything else
// low. Lines may differ in length; missing tails read low.
func FromLines(rate int, lines ...string) *Capture {
	n := 0
	for _, l := range lines {
		if len(l) > n {
			n = len(l)
		}
	}
	samples := make([]sigrok.Sample, n)
	for ch, l := range lines {
		for i := 0; i < len(l); i++ {
			if l[i] == '1' {
				samples[i] |= 1 << ch
			}
		}
	}
	return New(rate, samples...)
}

// Samplerate is the capture rate in Hz.
func (c *Capture) Samplerate() int { return c.rate }

// Samplenum is the absolute index of the cursor sample, -1 before the
// first Wait.
func (c *Capture) Samplenum() int { return c.pos }

// Matched reports which conditions of the last Wait held at the cursor.
func (c *Capture) Matched() []bool { return c.matched }

// Len is the total number of samples.
func (c *Capture) Len() int { return len(c.samples) }

// Wait advances the cursor until any condition matches and returns the
// sample there, io.EOF once the stream is exhausted. Skip-requests count
// down one per advanced sample and match at zero; one that arrives
// already satisfied holds at the cursor sample without advancing. No
// conditions advance exactly one sample. At the first sample the
// previous sample reads equal to it, so edges cannot fire there.
func (c *Capture) Wait(conds []sigrok.Cond) (sigrok.Sample, error) {
	if len(conds) == 0 {
		c.matched = nil
		return c.advance()
	}

	work := make([]sigrok.Cond, len(conds))
	copy(work, conds)
	for i := range work {
		if work[i].IsSkip() && work[i].Skip < 0 {
			work[i].Skip = 0
		}
	}
	c.matched = make([]bool, len(work))

	if c.pos >= 0 && c.pos < len(c.samples) {
		hit := false
		for i := range work {
			if work[i].IsSkip() && work[i].Skip == 0 {
				c.matched[i] = true
				hit = true
			}
		}
		if hit {
			return c.samples[c.pos], nil
		}
	}

	for {
		cur, err := c.advance()
		if err != nil {
			return 0, err
		}
		last := cur
		if c.pos > 0 {
			last = c.samples[c.pos-1]
		}
		hit := false
		for i := range work {
			if work[i].IsSkip() && work[i].Skip > 0 {
				work[i].Skip--
			}
			if work[i].Match(last, cur) {
				c.matched[i] = true
				hit = true
			}
		}
		if hit {
			return cur, nil
		}
	}
}

// advance moves the cursor one sample forward.
func (c *Capture) advance() (sigrok.Sample, error) {
	if c.pos+1 >= len(c.samples) {
		c.pos = len(c.samples)
		return 0, io.EOF
	}
	c.pos++
	return c.samples[c.pos], nil
}
