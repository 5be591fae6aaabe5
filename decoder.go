package sigrok

import (
	"fmt"
	"io"
)

type (
	// Channel describes one declared decoder channel.
	Channel struct {
		ID   string
		Name string
		Desc string
	}

	// Option describes one configurable decoder option.
	Option struct {
		ID      string
		Desc    string
		Default any
		Values  []any
	}

	// Row groups annotation classes into one display row.
	Row struct {
		ID      string
		Desc    string
		Classes []int
	}

	// Info is the static decoder definition. Nil slices declare nothing:
	// a decoder with nil Annotations has no annotation classes and cannot
	// emit filtered annotations.
	Info struct {
		ID         string
		Name       string
		Longname   string
		Desc       string
		License    string
		APIVersion int
		Tags       []string

		// Inputs and Outputs name the stream kinds consumed and
		// produced: "logic" for raw samples, a decoder id for chained
		// frames.
		Inputs  []string
		Outputs []string

		Channels         []Channel
		OptionalChannels []Channel
		Options          []Option

		// Annotations and Binary list (id, description) pairs. The id at
		// index 0 is what output filters match.
		Annotations    [][2]string
		AnnotationRows []Row
		Binary         [][2]string
	}
)

type (
	// Decoder is one protocol decoder instance. Implementations embed
	// Dec, which supplies the runtime operations and the unexported
	// method of this interface.
	Decoder interface {
		// Info returns the static definition.
		Info() Info
		// Reset returns the instance to its initial decoding state.
		Reset() error
		// Start runs once per pipeline run, after every Reset completed
		// and before any sample flows.
		Start() error
		// Stop runs once after the stream ends. Dec provides a no-op.
		Stop() error
		// Decode is the run loop of a first-stage decoder: it pulls
		// samples with Wait until the input is exhausted.
		Decode() error
		// Metadata receives stream facts, like the sample rate, before
		// decoding starts. It may run more than once per fact. Dec
		// provides a no-op.
		Metadata(key MetadataKey, value any)

		dec() *Dec
	}

	// Stacked is the capability of decoders that consume chained output
	// of a decoder below them.
	Stacked interface {
		Decoder
		// Feed handles one chained frame covering samples start through
		// end.
		Feed(start, end int, data any) error
	}

	// Callback consumes one routed output event.
	Callback func(start, end int, data any) error

	// Input is the sample stream a pipeline runs against. Implementations
	// own the cursor: they advance it, count down skip-requests and
	// report io.EOF on exhaustion.
	Input interface {
		Wait(conds []Cond) (Sample, error)
		// Samplenum is the absolute index of the cursor sample.
		Samplenum() int
		// Matched reports per condition of the last Wait whether it held
		// at the returned sample.
		Matched() []bool
		// Samplerate is the capture rate in Hz, zero or negative when
		// unknown.
		Samplerate() int
	}

	// Emitter is implemented by inputs that carry pre-decoded frames of
	// their own and deliver them to callbacks during a run.
	Emitter interface {
		AddCallback(kind OutputType, filter string, fn Callback)
	}
)

// callback is one registered consumer of an output kind.
type callback struct {
	filter string
	fn     Callback
}

// Dec is the embeddable decoder base. It owns the logical-to-physical
// channel table, the output callbacks, the option values and a borrowed
// input, and supplies every operation decoder code builds on. The zero
// value is ready to embed; pipeline wiring binds the rest before any
// sample flows.
type Dec struct {
	info Info
	uid  string
	in   Input

	remap    map[int]int
	oneToOne bool

	callbacks map[OutputType][]callback
	opts      map[string]any

	waited bool
	metric DecoderMetric
}

func (d *Dec) dec() *Dec { return d }

// describe fixes the static definition on the base. Every wiring entry
// point calls it before metadata-derived state is read.
func (d *Dec) describe(info Info) {
	d.info = info
	if d.uid == "" {
		d.uid = newUID()
	}
}

// Metadata is the no-op default. Decoders that care override it.
func (d *Dec) Metadata(key MetadataKey, value any) {}

// Stop is the no-op default.
func (d *Dec) Stop() error { return nil }

// Option returns a decoder option value: the declared default unless the
// pipeline overrode it.
func (d *Dec) Option(id string) any { return d.opts[id] }

// setOptions merges declared defaults with pipeline-supplied values.
func (d *Dec) setOptions(values map[string]any) {
	d.opts = make(map[string]any, len(d.info.Options)+len(values))
	for _, o := range d.info.Options {
		d.opts[o.ID] = o.Default
	}
	for id, v := range values {
		d.opts[id] = v
	}
}

// Register declares an output kind the decoder will emit. The kind is its
// own handle.
func (d *Dec) Register(kind OutputType) OutputType { return kind }

// AddCallback subscribes fn to events of the given kind. An empty filter
// delivers every event; for annotation and binary kinds a filter narrows
// delivery to the named class or track. Dispatch preserves registration
// order.
func (d *Dec) AddCallback(kind OutputType, filter string, fn Callback) {
	if d.callbacks == nil {
		d.callbacks = make(map[OutputType][]callback)
	}
	d.callbacks[kind] = append(d.callbacks[kind], callback{filter: filter, fn: fn})
}

// Bind maps a logical channel to a physical channel of the input. The
// first call arms the one-to-one fast path; it stays armed only while
// every binding maps an index to itself. Rebinding overwrites; two
// logical channels may share one physical channel.
func (d *Dec) Bind(logical, physical int) {
	if d.remap == nil {
		d.remap = make(map[int]int)
		d.oneToOne = true
	}
	d.remap[logical] = physical
	d.oneToOne = d.oneToOne && logical == physical
}

// HasChannel reports whether a logical channel is bound. Decoders must
// check it before waiting on their optional channels.
func (d *Dec) HasChannel(logical int) bool {
	_, ok := d.remap[logical]
	return ok
}

// Wait suspends the decoder until any condition matches, advancing the
// input cursor. No conditions advance exactly one sample. The result is
// indexed by logical channel, Unmapped where unbound. io.EOF reports the
// end of the stream and terminates the decode loop.
func (d *Dec) Wait(conds ...Cond) ([]Level, error) {
	if d.in == nil {
		return nil, ErrUninitialized
	}
	translated, err := d.translate(conds)
	if err != nil {
		return nil, err
	}
	before := d.in.Samplenum()
	s, err := d.in.Wait(translated)
	if err != nil {
		return nil, err
	}
	d.waited = true
	if d.metric != nil {
		d.metric.Wait(d.in.Samplenum() - before)
	}
	data := make([]Level, len(d.info.Channels)+len(d.info.OptionalChannels))
	for i := range data {
		data[i] = Unmapped
	}
	for logical, physical := range d.remap {
		if logical < len(data) {
			data[logical] = s.Bit(physical)
		}
	}
	return data, nil
}

// translate rewrites logical channel keys to physical ones. Skip-requests
// pass through; a one-to-one table forwards everything untouched.
func (d *Dec) translate(conds []Cond) ([]Cond, error) {
	if d.oneToOne {
		return conds, nil
	}
	out := make([]Cond, 0, len(conds))
	for _, c := range conds {
		if c.IsSkip() {
			out = append(out, c)
			continue
		}
		t := make(Triggers, len(c.Triggers))
		for logical, trig := range c.Triggers {
			physical, ok := d.remap[logical]
			if !ok {
				return nil, fmt.Errorf("%w: wait on unbound channel %d", ErrContract, logical)
			}
			t[physical] = trig
		}
		out = append(out, Cond{Triggers: t})
	}
	return out, nil
}

// Samplenum is the absolute sample index at the cursor. It fails with
// ErrNotReady until Wait has returned once.
func (d *Dec) Samplenum() (int, error) {
	if !d.waited {
		return 0, ErrNotReady
	}
	return d.in.Samplenum(), nil
}

// Matched reports which conditions of the last Wait held at the returned
// sample. It fails with ErrNotReady until Wait has returned once.
func (d *Dec) Matched() ([]bool, error) {
	if !d.waited {
		return nil, ErrNotReady
	}
	return d.in.Matched(), nil
}

// Put routes one output event through the callbacks registered for its
// kind, in registration order. Events nobody listens to are dropped.
// Filtered annotation and binary callbacks resolve the event's class or
// track against the decoder definition; emitting outside it fails with
// ErrContract. A callback error aborts dispatch and unwinds to the
// caller.
func (d *Dec) Put(start, end int, kind OutputType, data any) error {
	cbs := d.callbacks[kind]
	if len(cbs) == 0 {
		return nil
	}
	if d.metric != nil {
		d.metric.Event(kind)
	}
	for _, cb := range cbs {
		if cb.filter != "" {
			switch kind {
			case OutputAnn:
				id, err := d.annClass(data)
				if err != nil {
					return err
				}
				if id != cb.filter {
					continue
				}
			case OutputBinary:
				id, err := d.binTrack(data)
				if err != nil {
					return err
				}
				if id != cb.filter {
					continue
				}
			}
		}
		if err := cb.fn(start, end, data); err != nil {
			return err
		}
	}
	return nil
}

// annClass resolves an annotation payload to its declared class id.
func (d *Dec) annClass(data any) (string, error) {
	a, ok := data.(Ann)
	if !ok {
		return "", fmt.Errorf("%w: annotation payload %T", ErrContract, data)
	}
	if len(d.info.Annotations) == 0 {
		return "", fmt.Errorf("%w: no annotation classes declared", ErrContract)
	}
	if a.Class < 0 || a.Class >= len(d.info.Annotations) {
		return "", fmt.Errorf("%w: undeclared annotation class %d", ErrContract, a.Class)
	}
	return d.info.Annotations[a.Class][0], nil
}

// binTrack resolves a binary payload to its declared track id.
func (d *Dec) binTrack(data any) (string, error) {
	b, ok := data.(Bin)
	if !ok {
		return "", fmt.Errorf("%w: binary payload %T", ErrContract, data)
	}
	if len(d.info.Binary) == 0 {
		return "", fmt.Errorf("%w: no binary tracks declared", ErrContract)
	}
	if b.Track < 0 || b.Track >= len(d.info.Binary) {
		return "", fmt.Errorf("%w: undeclared binary track %d", ErrContract, b.Track)
	}
	return d.info.Binary[b.Track][0], nil
}

// SetChannel binds the channel named id, resolved against the declared
// channels followed by the optional channels. Unknown names are ignored.
func SetChannel(d Decoder, id string, physical int) {
	info := d.Info()
	logical := 0
	for _, set := range [][]Channel{info.Channels, info.OptionalChannels} {
		for _, ch := range set {
			if ch.ID == id {
				d.dec().Bind(logical, physical)
				return
			}
			logical++
		}
	}
}

// Run drives a single decoder against an input: the input is attached and
// Decode loops until the stream ends. io.EOF is the normal way out and is
// swallowed here.
func Run(d Decoder, in Input) error {
	b := d.dec()
	b.describe(d.Info())
	b.in = in
	if err := d.Decode(); err != nil && err != io.EOF {
		return err
	}
	return nil
}
