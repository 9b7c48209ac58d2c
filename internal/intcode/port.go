package intcode

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/jcorbin/intcode/internal/flushio"
)

// Input is a source of values for the in instruction. Recv blocks until a
// value is available, returning ErrInputExhausted once none ever will be.
type Input interface {
	Recv(ctx context.Context) (int64, error)
}

// Output is a sink for the out instruction. Send returns ErrHungUp once
// nobody is listening anymore.
type Output interface {
	Send(ctx context.Context, v int64) error
}

var (
	// ErrInputExhausted is returned by Input.Recv when the writer has
	// closed its end, and every value it sent has been received.
	ErrInputExhausted = errors.New("input exhausted")

	// ErrHungUp is returned by Output.Send when the reader has hung up.
	ErrHungUp = errors.New("output hung up")
)

// Port is a blocking channel of values between exactly one writer and one
// reader, with room for one value in flight. A port may also be seeded with
// values that the reader receives before anything sent by the writer.
//
// The writer calls Close when it is done sending; the reader calls Hangup when
// it is done receiving. Both are irreversible, and safe to call more than once.
type Port struct {
	queue  []int64
	ch     chan int64
	hungup chan struct{}

	closeOnce  sync.Once
	hangupOnce sync.Once
}

// NewPort creates a port whose reader will first receive any seed values.
func NewPort(seed ...int64) *Port {
	return &Port{
		queue:  append([]int64(nil), seed...),
		ch:     make(chan int64, 1),
		hungup: make(chan struct{}),
	}
}

// Send blocks until v is accepted, the reader hangs up, or ctx is done.
func (p *Port) Send(ctx context.Context, v int64) error {
	select {
	case <-p.hungup:
		return ErrHungUp
	default:
	}
	select {
	case p.ch <- v:
		return nil
	case <-p.hungup:
		return ErrHungUp
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until a value arrives, the writer closes, or ctx is done.
func (p *Port) Recv(ctx context.Context) (int64, error) {
	if len(p.queue) > 0 {
		v := p.queue[0]
		p.queue = p.queue[1:]
		return v, nil
	}
	select {
	case v, ok := <-p.ch:
		if !ok {
			return 0, ErrInputExhausted
		}
		return v, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Close marks the writer as done; the reader may still drain any value in
// flight before seeing ErrInputExhausted.
func (p *Port) Close() {
	p.closeOnce.Do(func() { close(p.ch) })
}

// Hangup marks the reader as done; any further Send returns ErrHungUp.
func (p *Port) Hangup() {
	p.hangupOnce.Do(func() { close(p.hungup) })
}

// Values is an Input that yields its values in order.
type Values []int64

// Recv returns the next value, or ErrInputExhausted.
func (vs *Values) Recv(ctx context.Context) (int64, error) {
	if len(*vs) == 0 {
		return 0, ErrInputExhausted
	}
	v := (*vs)[0]
	*vs = (*vs)[1:]
	return v, nil
}

// Collect is an Output that appends every value sent.
type Collect []int64

// Send appends v.
func (c *Collect) Send(ctx context.Context, v int64) error {
	*c = append(*c, v)
	return nil
}

// Discard is an Output that accepts and drops every value.
var Discard Output = discard{}

type discard struct{}

func (discard) Send(ctx context.Context, v int64) error { return nil }

// LineWriter is an Output that writes each value as a decimal line.
type LineWriter struct {
	w   flushio.WriteFlusher
	buf []byte
	err error
}

// NewLineWriter creates a LineWriter, buffering w as needed.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: flushio.NewWriteFlusher(w)}
}

// Send writes v followed by a newline; after the first write error, every
// Send returns that error.
func (lw *LineWriter) Send(ctx context.Context, v int64) error {
	if lw.err != nil {
		return lw.err
	}
	lw.buf = strconv.AppendInt(lw.buf[:0], v, 10)
	lw.buf = append(lw.buf, '\n')
	_, lw.err = lw.w.Write(lw.buf)
	return lw.err
}

// Close flushes any buffered output; engines call it when they stop running.
func (lw *LineWriter) Close() {
	if err := lw.w.Flush(); lw.err == nil {
		lw.err = err
	}
}

// Err returns any write or flush error seen so far.
func (lw *LineWriter) Err() error { return lw.err }
