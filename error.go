package sigrok

import (
	"errors"
	"strings"
)

// Runtime failures decoders and pipelines report. End of stream is not
// among them: Wait and Run signal it with io.EOF.
var (
	// ErrUninitialized is returned by Wait before an input is attached.
	ErrUninitialized = errors.New("input not attached")

	// ErrNotReady is returned when cursor state is queried before the
	// first successful Wait.
	ErrNotReady = errors.New("wait has not returned yet")

	// ErrContract reports a decoder stepping outside its declared
	// definition, like emitting an undeclared class or waiting on an
	// unbound channel.
	ErrContract = errors.New("decoder contract violation")
)

// execErrors wraps errors of multiple failing stages.
type execErrors []error

func (e execErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is reports whether any of the wrapped errors match the sentinel.
func (e execErrors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// ret returns untyped nil if error list is empty.
func (e execErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
