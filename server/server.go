// Package server implements the Videohub server engine: it accepts client
// connections and presents a router.Backend to each of them as if it were
// a physical Videohub device, including the initial state dump and live
// change notifications.
package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/videohub"
)

// protocolVersion is the preamble version this engine advertises, matching
// the reference implementation's target device generation.
var protocolVersion = videohub.VersionNumber{Major: 2, Minor: 7}

// Server serves a single router.Backend's matrix 0 to any number of
// concurrent Videohub clients.
type Server struct {
	backend router.Backend
	log     zerolog.Logger
}

// New returns a Server fronting backend.
func New(backend router.Backend, log zerolog.Logger) *Server {
	return &Server{backend: backend, log: log}
}

// Serve accepts connections from l until ctx is done, handling each on its
// own goroutine supervised by an errgroup: one connection's panic-free
// error never aborts another's. When ctx is done, Serve closes l and
// returns once every connection goroutine has returned; any other Accept
// error is returned at once, without waiting for connections already
// accepted.
func (s *Server) Serve(ctx context.Context, l *videohub.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	var closeOnce sync.Once
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() { l.Close() })
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return g.Wait()
			default:
				return err
			}
		}
		g.Go(func() error {
			err := s.handleConn(ctx, conn)
			if err != nil {
				s.log.Info().Err(err).Msg("server: connection ended")
			}
			return nil
		})
	}
}
