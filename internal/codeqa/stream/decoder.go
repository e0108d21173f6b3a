package stream

import (
	"bufio"
	"io"
	"iter"

	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxLoggedLine bounds how much of a malformed line ends up in the log.
const maxLoggedLine = 200

// Decoder turns a byte stream into an ordered sequence of events, one per line.
//
// Lines may arrive split across reads; the buffered reader carries the partial
// line until its line feed shows up. A line feed byte never occurs inside a
// multi-byte UTF-8 sequence, so characters split across reads are reassembled
// before any decoding happens.
//
// A Decoder is single-pass: Events yields the stream once.
type Decoder struct {
	reader   *bufio.Reader
	logger   zerolog.Logger
	consumed bool
	lineNo   int
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithLogger sets the logger used for diagnostics about skipped lines.
func WithLogger(logger zerolog.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		reader: bufio.NewReader(r),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("component", "stream_decoder").Logger()
	return d
}

// Events returns the lazy event sequence. Blank lines are skipped and malformed
// lines are logged and yielded as KindMalformed without stopping the sequence.
// The sequence ends at EOF; a read failure is yielded once as a
// *codeqa.StreamReadError and ends it too.
func (d *Decoder) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if d.consumed {
			return
		}
		d.consumed = true

		for {
			line, err := d.reader.ReadBytes('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				if len(line) > 0 {
					d.logger.Debug().
						Int("line", d.lineNo+1).
						Int("bytes", len(line)).
						Err(err).
						Msg("discarding partial line after read error")
				}
				yield(Event{}, &codeqa.StreamReadError{Cause: err})
				return
			}

			// At EOF the last line may lack its line feed; decode it anyway.
			if len(line) > 0 {
				d.lineNo++
				if ev, ok := ParseLine(line); ok {
					if ev.Kind == KindMalformed {
						d.logger.Warn().
							Int("line", d.lineNo).
							Str("raw", truncate(ev.Raw, maxLoggedLine)).
							Msg("skipping malformed stream line")
					}
					if !yield(ev, nil) {
						return
					}
				}
			}

			if err != nil {
				return
			}
		}
	}
}

// Lines returns how many lines have been read so far, blank ones included.
func (d *Decoder) Lines() int {
	return d.lineNo
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
