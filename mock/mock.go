// Package mock provides decoders, sinks and inputs for pipeline tests.
package mock

import (
	"errors"
	"io"

	"pipelined.dev/sigrok"
	"pipelined.dev/sigrok/capture"
)

// Journal records calls across mocks in order, so tests can assert
// lifecycle sequences. A nil journal records nothing.
type Journal struct {
	entries []string
}

func (j *Journal) add(entry string) {
	if j == nil {
		return
	}
	j.entries = append(j.entries, entry)
}

// Entries returns the recorded order.
func (j *Journal) Entries() []string {
	if j == nil {
		return nil
	}
	return j.entries
}

// Hooks counts lifecycle calls and injects failures. Name prefixes the
// journal entries.
type Hooks struct {
	Name    string
	Journal *Journal

	Resetted int
	Started  int
	Stopped  int

	ErrorOnReset error
	ErrorOnStart error
	ErrorOnStop  error
}

func (h *Hooks) reset() error {
	h.Resetted++
	h.Journal.add(h.Name + ".reset")
	return h.ErrorOnReset
}

func (h *Hooks) start() error {
	h.Started++
	h.Journal.add(h.Name + ".start")
	return h.ErrorOnStart
}

func (h *Hooks) stop() error {
	h.Stopped++
	h.Journal.add(h.Name + ".stop")
	return h.ErrorOnStop
}

// Decoder is a first-stage mock. Every Decode iteration waits its
// conditions, emits the frame index as a chained frame and, when asked,
// one annotation.
type Decoder struct {
	sigrok.Dec
	Hooks

	// Meta overrides the default definition when its ID is set.
	Meta sigrok.Info
	// Conds overrides the per-iteration wait conditions.
	Conds []sigrok.Cond
	// Limit caps emitted frames; 0 means decode to stream end.
	Limit int
	// Annotate emits an Ann of class Class alongside every frame.
	Annotate bool
	Class    int

	// Frames counts emitted frames.
	Frames int
	// Levels records the result of every Wait.
	Levels [][]sigrok.Level
	// Rates records sample rates delivered through Metadata.
	Rates []int
}

// Info returns Meta when set, and a two-channel definition with data and
// warnings annotation classes otherwise.
func (d *Decoder) Info() sigrok.Info {
	if d.Meta.ID != "" {
		return d.Meta
	}
	return sigrok.Info{
		ID:   "mock",
		Name: "Mock",
		Channels: []sigrok.Channel{
			{ID: "d0", Name: "D0"},
			{ID: "d1", Name: "D1"},
		},
		Annotations: [][2]string{
			{"data", "Data"},
			{"warnings", "Warnings"},
		},
		Outputs: []string{"mock"},
	}
}

func (d *Decoder) Reset() error {
	d.Frames = 0
	d.Levels = nil
	return d.Hooks.reset()
}

func (d *Decoder) Start() error { return d.Hooks.start() }

func (d *Decoder) Stop() error { return d.Hooks.stop() }

// Metadata records delivered sample rates.
func (d *Decoder) Metadata(key sigrok.MetadataKey, value any) {
	d.Journal.add(d.Name + ".metadata")
	if key == sigrok.ConfSamplerate {
		if rate, ok := value.(int); ok {
			d.Rates = append(d.Rates, rate)
		}
	}
}

// Decode pulls one sample per frame until the limit or the stream end.
func (d *Decoder) Decode() error {
	d.Journal.add(d.Name + ".decode")
	for {
		if d.Limit > 0 && d.Frames >= d.Limit {
			return nil
		}
		conds := d.Conds
		if conds == nil {
			conds = []sigrok.Cond{sigrok.Skip(1)}
		}
		levels, err := d.Wait(conds...)
		if err != nil {
			return err
		}
		d.Levels = append(d.Levels, levels)
		num, err := d.Samplenum()
		if err != nil {
			return err
		}
		if err := d.Put(num, num+1, sigrok.OutputChained, d.Frames); err != nil {
			return err
		}
		if d.Annotate {
			err := d.Put(num, num+1, sigrok.OutputAnn, sigrok.Ann{Class: d.Class, Text: []string{"frame"}})
			if err != nil {
				return err
			}
		}
		d.Frames++
	}
}

// Stacked is an upper-stage mock recording every chained frame it is
// fed. It cannot run first.
type Stacked struct {
	sigrok.Dec
	Hooks

	// Meta overrides the default definition when its ID is set.
	Meta sigrok.Info
	// Annotate re-emits every frame as a class-0 annotation.
	Annotate    bool
	ErrorOnFeed error

	// Feeds records the received frames.
	Feeds []Feed
}

// Feed is one recorded chained frame.
type Feed struct {
	Start int
	End   int
	Data  any
}

func (s *Stacked) Info() sigrok.Info {
	if s.Meta.ID != "" {
		return s.Meta
	}
	return sigrok.Info{
		ID:          "mock_stacked",
		Name:        "Mock stacked",
		Inputs:      []string{"mock"},
		Annotations: [][2]string{{"sum", "Summary"}},
	}
}

func (s *Stacked) Reset() error {
	s.Feeds = nil
	return s.Hooks.reset()
}

func (s *Stacked) Start() error { return s.Hooks.start() }

func (s *Stacked) Stop() error { return s.Hooks.stop() }

// Decode fails: the mock consumes chained frames only.
func (s *Stacked) Decode() error {
	return errors.New("mock: stacked decoder cannot run first")
}

// Feed records one frame.
func (s *Stacked) Feed(start, end int, data any) error {
	s.Feeds = append(s.Feeds, Feed{Start: start, End: end, Data: data})
	s.Journal.add(s.Name + ".feed")
	if s.ErrorOnFeed != nil {
		return s.ErrorOnFeed
	}
	if s.Annotate {
		return s.Put(start, end, sigrok.OutputAnn, sigrok.Ann{Class: 0, Text: []string{"sum"}})
	}
	return nil
}

// Sink records every routed event. It also consumes streams by itself,
// which makes it usable as the only stage of a decoder-less pipeline.
type Sink struct {
	Hooks

	ErrorOnOutput error

	// Events records routed events in arrival order.
	Events []Event
	// Consumed counts samples read by Run.
	Consumed int
	// Rates records sample rates delivered through Metadata.
	Rates []int
}

// Event is one recorded sink delivery.
type Event struct {
	Src   any
	Start int
	End   int
	Kind  sigrok.OutputType
	Data  any
}

func (s *Sink) Reset() error {
	s.Events = nil
	s.Consumed = 0
	return s.Hooks.reset()
}

func (s *Sink) Start() error { return s.Hooks.start() }

func (s *Sink) Stop() error { return s.Hooks.stop() }

// Output records one event.
func (s *Sink) Output(src any, start, end int, kind sigrok.OutputType, data any) error {
	s.Events = append(s.Events, Event{Src: src, Start: start, End: end, Kind: kind, Data: data})
	return s.ErrorOnOutput
}

// ByKind returns the recorded events of one kind, in arrival order.
func (s *Sink) ByKind(kind sigrok.OutputType) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Run consumes the whole stream, counting samples.
func (s *Sink) Run(in sigrok.Input) error {
	s.Journal.add(s.Name + ".run")
	for {
		if _, err := in.Wait(nil); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.Consumed++
	}
}

// Metadata records stream facts delivered when the sink is first in
// line.
func (s *Sink) Metadata(key sigrok.MetadataKey, value any) {
	s.Journal.add(s.Name + ".metadata")
	if key == sigrok.ConfSamplerate {
		if rate, ok := value.(int); ok {
			s.Rates = append(s.Rates, rate)
		}
	}
}

// Input is an Emitter-capable stream: a capture plus hand-delivered
// pre-decoded frames.
type Input struct {
	*capture.Capture

	// Callbacks records every AddCallback registration.
	Callbacks []Registered
}

// Registered is one recorded callback registration.
type Registered struct {
	Kind   sigrok.OutputType
	Filter string
	Fn     sigrok.Callback
}

// NewInput wraps a capture.
func NewInput(c *capture.Capture) *Input {
	return &Input{Capture: c}
}

// AddCallback records a registration.
func (in *Input) AddCallback(kind sigrok.OutputType, filter string, fn sigrok.Callback) {
	in.Callbacks = append(in.Callbacks, Registered{Kind: kind, Filter: filter, Fn: fn})
}

// Emit delivers one frame to every callback registered for its kind.
func (in *Input) Emit(start, end int, kind sigrok.OutputType, data any) error {
	for _, cb := range in.Callbacks {
		if cb.Kind == kind {
			if err := cb.Fn(start, end, data); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	_ sigrok.Decoder  = (*Decoder)(nil)
	_ sigrok.Stacked  = (*Stacked)(nil)
	_ sigrok.Sink     = (*Sink)(nil)
	_ sigrok.Runnable = (*Sink)(nil)
	_ sigrok.MetaSink = (*Sink)(nil)
	_ sigrok.Input    = (*Input)(nil)
	_ sigrok.Emitter  = (*Input)(nil)
)
