package sigrok

type (
	// Sample is one captured word of the stream. Bit i carries the level
	// of physical channel i.
	Sample uint64

	// Level is the state of one logical channel in a Wait result.
	Level int8

	// Trigger is a per-channel term of a wait condition.
	Trigger uint8

	// Triggers maps logical channel numbers to required states or
	// transitions.
	Triggers map[int]Trigger

	// OutputType tags the events decoders emit.
	OutputType int

	// MetadataKey identifies a stream fact delivered to decoders before
	// a run.
	MetadataKey int
)

// Unmapped fills result slots of logical channels that have no physical
// binding. Decoders must check for it before dereferencing optional
// channels.
const Unmapped Level = -1

// Bit returns the level of physical channel i.
func (s Sample) Bit(i int) Level {
	if s&(1<<i) != 0 {
		return 1
	}
	return 0
}

const (
	// Low holds while the channel is low.
	Low Trigger = iota
	// High holds while the channel is high.
	High
	// Rising holds on a low-to-high transition.
	Rising
	// Falling holds on a high-to-low transition.
	Falling
	// Edge holds on any transition.
	Edge
	// Stable holds on the absence of one.
	Stable
)

// String returns the single-letter form decoder documentation uses.
func (t Trigger) String() string {
	switch t {
	case Low:
		return "l"
	case High:
		return "h"
	case Rising:
		return "r"
	case Falling:
		return "f"
	case Edge:
		return "e"
	case Stable:
		return "s"
	}
	return "?"
}

const (
	// OutputAnn carries human-readable annotations (Ann payloads).
	OutputAnn OutputType = iota
	// OutputChained carries opaque frames for a stacked decoder.
	OutputChained
	// OutputBinary carries decoded raw bytes (Bin payloads).
	OutputBinary
	// OutputLogic carries synthesized logic levels (Logic payloads).
	OutputLogic
	// OutputMeta carries decoder-defined values.
	OutputMeta
)

func (t OutputType) String() string {
	switch t {
	case OutputAnn:
		return "ann"
	case OutputChained:
		return "chained"
	case OutputBinary:
		return "binary"
	case OutputLogic:
		return "logic"
	case OutputMeta:
		return "meta"
	}
	return "unknown"
}

type (
	// Ann is an OutputAnn payload: the emitting annotation class index
	// and its texts, most verbose first.
	Ann struct {
		Class int
		Text  []string
	}

	// Bin is an OutputBinary payload: the emitting track index and the
	// decoded bytes.
	Bin struct {
		Track int
		Data  []byte
	}

	// Logic is an OutputLogic payload: a logic group index and packed
	// levels.
	Logic struct {
		Group int
		Data  []byte
	}
)

// Cond is one wait condition: either a skip-request advancing a fixed
// number of samples or a set of per-channel triggers that must hold at
// once. The zero Cond is a skip-request for zero samples, satisfied
// immediately.
type Cond struct {
	// Skip is the number of samples left to advance. Sources count it
	// down on their working copy; it is meaningful only when Triggers is
	// nil.
	Skip int

	// Triggers holds the per-channel terms. A nil map makes the
	// condition a skip-request.
	Triggers Triggers
}

// Skip returns a condition satisfied after n more samples.
func Skip(n int) Cond { return Cond{Skip: n} }

// On returns a condition over per-channel triggers.
func On(t Triggers) Cond { return Cond{Triggers: t} }

// IsSkip reports whether the condition is a skip-request.
func (c Cond) IsSkip() bool { return c.Triggers == nil }

// Match reports whether the condition holds for a pair of successive
// samples. A skip-request matches when its countdown has reached zero;
// the source owns the countdown. Trigger terms are ANDed, so a condition
// without terms matches any pair.
func (c Cond) Match(last, cur Sample) bool {
	if c.IsSkip() {
		return c.Skip == 0
	}
	for ch, t := range c.Triggers {
		mask := Sample(1) << ch
		switch t {
		case Low:
			if cur&mask != 0 {
				return false
			}
		case High:
			if cur&mask == 0 {
				return false
			}
		case Rising:
			if last&mask != 0 || cur&mask == 0 {
				return false
			}
		case Falling:
			if last&mask == 0 || cur&mask != 0 {
				return false
			}
		case Edge:
			if last&mask == cur&mask {
				return false
			}
		case Stable:
			if last&mask != cur&mask {
				return false
			}
		}
	}
	return true
}

// ConfSamplerate carries the capture sample rate in Hz.
const ConfSamplerate MetadataKey = 1

// KHz converts a rate in kilohertz to Hz.
func KHz(n int) int { return n * 1000 }

// MHz converts a rate in megahertz to Hz.
func MHz(n int) int { return n * 1000 * 1000 }
