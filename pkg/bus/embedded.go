package bus

import (
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// StartEmbedded runs an in-process NATS server and returns it with its
// client URL. Lets the follower run standalone (simulator plus controller
// on one machine) without an external broker.
func StartEmbedded(host string, port int) (*natsserver.Server, string, error) {
	opts := &natsserver.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	go srv.Start()

	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, "", fmt.Errorf("embedded NATS server not ready")
	}

	return srv, srv.ClientURL(), nil
}
