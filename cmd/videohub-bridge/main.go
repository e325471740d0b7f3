// Command videohub-bridge runs the Videohub protocol bridge: either as a
// server fronting a routing backend, or as a client that connects to a
// remote device and logs its state-change events. It is intentionally thin: all behavior lives in
// the client, server, and router packages.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"bridgekit.dev/videohub/client"
	"bridgekit.dev/videohub/internal/logging"
	"bridgekit.dev/videohub/router"
	"bridgekit.dev/videohub/router/mock"
	"bridgekit.dev/videohub/router/ndi"
	"bridgekit.dev/videohub/server"
	"bridgekit.dev/videohub/videohub"
)

func main() {
	var (
		mode       = flag.String("mode", "server", `"server" or "client"`)
		addr       = flag.String("addr", "", "listen address (server) or peer address (client)")
		backend    = flag.String("backend", "mock", `routing backend when in server mode: "mock" or "ndi"`)
		inputs     = flag.Uint("inputs", 8, "input count for the mock backend")
		outputs    = flag.Uint("outputs", 8, "output count for the mock backend")
		ndiName    = flag.String("ndi-name", "videohub-bridge", "NDI backend self-identification name")
		pretty     = flag.Bool("pretty", true, "human-readable log output")
	)
	flag.Parse()

	log := logging.New(os.Stderr, *pretty)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch *mode {
	case "server":
		var b router.Backend
		switch *backend {
		case "ndi":
			n := ndi.New(*ndiName, uint32(*inputs), uint32(*outputs))
			go func() {
				if err := n.Run(ctx, 5*time.Second); err != nil {
					log.Error().Err(err).Msg("ndi discovery stopped")
				}
			}()
			b = n
		default:
			b = mock.New(router.Info{Model: "VideohubBridge", Name: *ndiName}, 1, uint32(*inputs), uint32(*outputs))
		}

		l, err := videohub.Listen(*addr)
		if err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
		log.Info().Str("addr", l.Addr().String()).Str("backend", *backend).Msg("serving")

		srv := server.New(b, log)
		if err := srv.Serve(ctx, l); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("serve")
		}

	case "client":
		c, err := client.Connect(ctx, *addr, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect")
		}
		defer c.Close()
		log.Info().Str("addr", *addr).Msg("connected")

		events, err := c.EventStream(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("subscribe")
		}
		for ev := range events {
			log.Info().Int("kind", int(ev.Kind)).Uint32("matrix", ev.MatrixID).Msg("event")
		}

	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
