/*
Package sigrok is a runtime for stream-based protocol decoders.

Concept

A protocol decoder turns a stream of logic samples into higher-level
events: annotations for humans, binary dumps for tooling, opaque frames
for the next decoder in a stack. This package supplies the machinery all
of them share and knows nothing about any particular protocol:

	Cond  - conditions matched against successive samples;
	Dec   - the embeddable decoder base: Wait, Put, Register;
	Stack - a decoder chain wired to a Sink, run against an Input.

Decoders

A decoder embeds Dec, describes itself with Info and implements the
lifecycle. First-stage decoders loop on Wait inside Decode:

	type Edges struct {
		sigrok.Dec
	}

	func (e *Edges) Decode() error {
		for {
			_, err := e.Wait(sigrok.On(sigrok.Triggers{0: sigrok.Edge}))
			if err != nil {
				return err
			}
			num, _ := e.Samplenum()
			err = e.Put(num, num+1, sigrok.OutputAnn, sigrok.Ann{Text: []string{"edge"}})
			if err != nil {
				return err
			}
		}
	}

Wait returns io.EOF when the stream is exhausted; returning it ends the
decode loop and counts as success. Decoders that sit on top of another
decoder additionally implement Feed and receive the lower decoder's
chained frames one call at a time.

Stacks

Decoders are wired with specs, lowest decoder first, and drained into a
sink:

	s, err := sigrok.NewStack(sink, []sigrok.Spec{
		{New: newSPI, Pins: map[string]int{"clk": 2, "mosi": 0}},
		{New: newFlash},
	})
	err = s.Run(in)

The last decoder's primary output and every lower decoder's chained
output are routed to the sink; chained output also feeds the decoder
above. Run drives the whole lifecycle: reset, start, sample-rate
metadata, decode, stop. Async does the same on its own goroutine and
reports through an error channel.

The run itself is single-threaded and cooperative: the only suspension
point is Wait, and everything a Put triggers downstream happens inside
the emitting decoder's call stack.
*/
package sigrok
