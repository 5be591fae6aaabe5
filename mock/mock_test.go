package mock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/sigrok"
	"pipelined.dev/sigrok/capture"
	"pipelined.dev/sigrok/mock"
)

func TestJournal(t *testing.T) {
	j := &mock.Journal{}
	d := &mock.Decoder{Hooks: mock.Hooks{Name: "d", Journal: j}}

	assert.Nil(t, d.Reset())
	assert.Nil(t, d.Start())
	assert.Nil(t, d.Stop())
	assert.Equal(t, []string{"d.reset", "d.start", "d.stop"}, j.Entries())
	assert.Equal(t, 1, d.Resetted)
	assert.Equal(t, 1, d.Started)
	assert.Equal(t, 1, d.Stopped)

	// a nil journal records nothing
	var none *mock.Journal
	assert.Nil(t, none.Entries())
	hooked := &mock.Decoder{}
	assert.Nil(t, hooked.Reset())
	assert.Equal(t, 1, hooked.Resetted)
}

func TestHookErrors(t *testing.T) {
	boom := errors.New("boom")
	d := &mock.Decoder{Hooks: mock.Hooks{ErrorOnStart: boom}}
	assert.Equal(t, boom, d.Start())
	assert.Equal(t, 1, d.Started)
}

func TestDecoderFrames(t *testing.T) {
	d := &mock.Decoder{Limit: 2}
	err := sigrok.Run(d, capture.New(0, 0, 0, 0, 0))
	assert.Nil(t, err)
	assert.Equal(t, 2, d.Frames)
	assert.Equal(t, 2, len(d.Levels))

	// Reset clears the run state
	assert.Nil(t, d.Reset())
	assert.Equal(t, 0, d.Frames)
	assert.Nil(t, d.Levels)
}

func TestStackedRefusesToRunFirst(t *testing.T) {
	s := &mock.Stacked{}
	err := sigrok.Run(s, capture.New(0, 1))
	assert.NotNil(t, err)
}

func TestSinkRun(t *testing.T) {
	sink := &mock.Sink{}
	err := sink.Run(capture.New(0, 1, 2, 3))
	assert.Nil(t, err)
	assert.Equal(t, 3, sink.Consumed)
}

func TestInputEmit(t *testing.T) {
	in := mock.NewInput(capture.New(0, 1))
	var got []any
	in.AddCallback(sigrok.OutputChained, "", func(start, end int, data any) error {
		got = append(got, data)
		return nil
	})
	in.AddCallback(sigrok.OutputAnn, "", func(start, end int, data any) error {
		t.Fatal("wrong kind delivered")
		return nil
	})

	assert.Nil(t, in.Emit(0, 1, sigrok.OutputChained, "frame"))
	assert.Equal(t, []any{"frame"}, got)

	boom := errors.New("boom")
	in.AddCallback(sigrok.OutputChained, "", func(start, end int, data any) error {
		return boom
	})
	assert.Equal(t, boom, in.Emit(1, 2, sigrok.OutputChained, "frame"))
}
