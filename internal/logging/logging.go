// Package logging centralizes the zerolog setup shared by the client
// engine, server engine, and process bootstrap, matching the corpus's
// habit of every component logging through a single configured logger
// rather than each reaching for its own.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing to w (os.Stderr if nil). When
// pretty is true, output goes through zerolog's human-readable console
// writer; otherwise it emits newline-delimited JSON, suitable for
// production log collection.
func New(w io.Writer, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
