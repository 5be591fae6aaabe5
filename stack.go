package sigrok

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// newUID returns new unique id.
func newUID() string {
	return xid.New().String()
}

type (
	// Sink terminates a pipeline: every routed event of every decoder
	// lands in Output.
	Sink interface {
		Reset() error
		Start() error
		Stop() error
		// Output consumes one event. src is the originating decoder or
		// input.
		Output(src any, start, end int, kind OutputType, data any) error
	}

	// Runnable is the capability of sinks that consume a stream
	// themselves. A pipeline without decoders requires it.
	Runnable interface {
		// Run reads the input until exhaustion.
		Run(in Input) error
	}

	// MetaSink is the capability of sinks that want stream facts when
	// they are first in line.
	MetaSink interface {
		Metadata(key MetadataKey, value any)
	}

	// Logger is a global interface for pipeline loggers.
	Logger interface {
		Debug(args ...any)
		Info(args ...any)
	}

	// Metric collects runtime counters of decoder instances.
	Metric interface {
		// AddDecoder registers an instance and returns its collector.
		AddDecoder(id string) DecoderMetric
	}

	// DecoderMetric counts one decoder's activity.
	DecoderMetric interface {
		// Wait records one returned Wait and the samples it advanced.
		Wait(samples int)
		// Event records one dispatched output event.
		Event(kind OutputType)
	}
)

// silentLogger is a default logger that logs nothing.
type silentLogger struct{}

func (silentLogger) Debug(args ...any) {}

func (silentLogger) Info(args ...any) {}

// Spec configures one decoder instance of a stack.
type Spec struct {
	// New constructs the instance.
	New func() Decoder
	// Options override declared option defaults, keyed by option id.
	Options map[string]any
	// Pins maps declared channel ids to physical channel numbers.
	Pins map[string]int
}

// Stack is an ordered decoder chain wired to a sink, lowest decoder
// first. Build one with NewStack and run it once with Run or Async.
type Stack struct {
	decoders []Decoder
	sink     Sink
	kind     OutputType
	filter   string
	log      Logger
	metric   Metric
}

// StackOption provides a way to set functional parameters to a stack.
type StackOption func(*Stack) error

// WithLogger sets logger to the stack. If this option is not provided,
// silent logger is used.
func WithLogger(l Logger) StackOption {
	return func(s *Stack) error {
		s.log = l
		return nil
	}
}

// WithMetric sets the runtime metric collector.
func WithMetric(m Metric) StackOption {
	return func(s *Stack) error {
		s.metric = m
		return nil
	}
}

// WithOutput selects the primary output kind and filter routed from the
// last decoder to the sink: annotations, unfiltered, when this option is
// not provided.
func WithOutput(kind OutputType, filter string) StackOption {
	return func(s *Stack) error {
		s.kind = kind
		s.filter = filter
		return nil
	}
}

// NewStack builds a pipeline over the sink: every spec is instantiated,
// configured and wired, last spec first. The last decoder's primary
// output routes to the sink; every lower decoder's chained output routes
// to the sink and feeds the decoder above it. Specs list decoders lowest
// first.
func NewStack(sink Sink, specs []Spec, opts ...StackOption) (*Stack, error) {
	if sink == nil {
		return nil, errors.New("stack: no sink")
	}
	s := &Stack{
		sink: sink,
		kind: OutputAnn,
		log:  silentLogger{},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	kind, filter := s.kind, s.filter
	s.decoders = make([]Decoder, len(specs))
	var next Decoder
	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		if spec.New == nil {
			return nil, fmt.Errorf("stack: spec %d has no constructor", i)
		}
		d := spec.New()
		if d == nil {
			return nil, fmt.Errorf("stack: spec %d constructed no decoder", i)
		}
		s.decoders[i] = d

		info := d.Info()
		b := d.dec()
		b.describe(info)
		b.setOptions(spec.Options)
		if s.metric != nil {
			b.metric = s.metric.AddDecoder(info.ID)
		}
		for id, num := range spec.Pins {
			SetChannel(d, id, num)
		}

		sinkKind := kind
		b.AddCallback(kind, filter, func(start, end int, data any) error {
			return s.sink.Output(d, start, end, sinkKind, data)
		})
		if next != nil {
			up, ok := next.(Stacked)
			if !ok {
				return nil, fmt.Errorf("stack: decoder %q cannot consume chained output", next.Info().ID)
			}
			if !feeds(info, up.Info()) {
				s.log.Info(fmt.Sprintf("stack: %q does not declare %q among its inputs", up.Info().ID, info.ID))
			}
			b.AddCallback(kind, filter, up.Feed)
		}
		s.log.Debug(fmt.Sprintf("stack: bound %s as %s", info.ID, b.uid))

		next = d
		kind, filter = OutputChained, ""
	}
	return s, nil
}

// feeds reports whether a lower decoder's declared outputs can satisfy
// the upper one's declared inputs. Decoders that declare nothing pass.
func feeds(lower, upper Info) bool {
	if len(lower.Outputs) == 0 || len(upper.Inputs) == 0 {
		return true
	}
	for _, out := range lower.Outputs {
		for _, in := range upper.Inputs {
			if out == in {
				return true
			}
		}
	}
	return false
}

// Run executes the pipeline against an input and blocks until the stream
// ends: reset every decoder then the sink, start every decoder then the
// sink, deliver the sample rate, decode, stop every decoder then the
// sink. Teardown runs on failures too; the run error wins over stop
// errors.
func (s *Stack) Run(in Input) error {
	if e, ok := in.(Emitter); ok {
		e.AddCallback(OutputChained, "", func(start, end int, data any) error {
			return s.sink.Output(in, start, end, OutputChained, data)
		})
	}

	for _, d := range s.decoders {
		if err := d.Reset(); err != nil {
			return fmt.Errorf("stack: reset %q: %w", d.Info().ID, err)
		}
	}
	if err := s.sink.Reset(); err != nil {
		return fmt.Errorf("stack: reset sink: %w", err)
	}

	started := 0
	for _, d := range s.decoders {
		if err := d.Start(); err != nil {
			s.stop(started, false)
			return fmt.Errorf("stack: start %q: %w", d.Info().ID, err)
		}
		started++
	}
	if err := s.sink.Start(); err != nil {
		s.stop(started, false)
		return fmt.Errorf("stack: start sink: %w", err)
	}

	if rate := in.Samplerate(); rate > 0 {
		s.log.Debug(fmt.Sprintf("stack: samplerate %d", rate))
		if len(s.decoders) > 0 {
			s.decoders[0].Metadata(ConfSamplerate, rate)
		} else if m, ok := s.sink.(MetaSink); ok {
			m.Metadata(ConfSamplerate, rate)
		}
	}

	s.log.Info(fmt.Sprintf("stack: run %d decoders", len(s.decoders)))
	var err error
	if len(s.decoders) > 0 {
		err = Run(s.decoders[0], in)
	} else if r, ok := s.sink.(Runnable); ok {
		err = r.Run(in)
	} else {
		err = errors.New("stack: no decoders and the sink cannot consume a stream")
	}

	if stopErr := s.stop(len(s.decoders), true); err == nil {
		err = stopErr
	}
	return err
}

// stop tears down the first n decoders in build order, then the sink when
// asked, and collects the failures.
func (s *Stack) stop(n int, sink bool) error {
	var errs execErrors
	for _, d := range s.decoders[:n] {
		if err := d.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stack: stop %q: %w", d.Info().ID, err))
		}
	}
	if sink {
		if err := s.sink.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stack: stop sink: %w", err))
		}
	}
	return errs.ret()
}

// Async runs the pipeline on its own goroutine. The returned channel
// reports one terminal error, if any, and is closed when the run is done.
func (s *Stack) Async(in Input) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := s.Run(in); err != nil {
			errc <- err
		}
	}()
	return errc
}
