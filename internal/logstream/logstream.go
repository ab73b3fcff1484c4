package logstream

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
)

// MaxLineSize is the longest line the streamer delivers in one piece.
// Longer lines are split into MaxLineSize chunks.
const MaxLineSize = 1 << 20

// Sink receives streamed lines.
type Sink interface {
	Line(line string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(line string)

func (f SinkFunc) Line(line string) { f(line) }

// Streamer forwards lines from a reader to a sink until EOF, a read error
// or cancellation.
type Streamer struct {
	r    io.Reader
	sink Sink
	done chan struct{}
}

// New creates a Streamer over r. Nothing is read until Run is called.
func New(r io.Reader, sink Sink) *Streamer {
	return &Streamer{
		r:    r,
		sink: sink,
		done: make(chan struct{}),
	}
}

// Run reads lines and forwards them to the sink. It returns once the
// reader is exhausted, a read fails or ctx is cancelled; a line read after
// cancellation is dropped. Run must be called at most once.
func (s *Streamer) Run(ctx context.Context) {
	defer close(s.done)

	br := bufio.NewReaderSize(s.r, 64*1024)
	var line []byte
	for {
		if ctx.Err() != nil {
			return
		}
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err != io.EOF {
				logging.Debug("log stream ended", "error", err)
			}
			return
		}
		line = append(line, chunk...)

		for len(line) > MaxLineSize {
			if !s.deliver(ctx, line[:MaxLineSize]) {
				return
			}
			line = append(line[:0], line[MaxLineSize:]...)
		}
		if isPrefix {
			continue
		}
		if !s.deliver(ctx, line) {
			return
		}
		line = line[:0]
	}
}

func (s *Streamer) deliver(ctx context.Context, line []byte) bool {
	if ctx.Err() != nil {
		return false
	}
	s.sink.Line(strings.TrimSuffix(string(line), "\r"))
	return true
}

// Done is closed when Run returns.
func (s *Streamer) Done() <-chan struct{} {
	return s.done
}
