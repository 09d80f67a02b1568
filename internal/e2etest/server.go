package e2etest

import (
	"context"
	"io"
	"log/slog"

	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/logging"
)

// LogAddrKey is the attribute the web server logs its listening address under.
const LogAddrKey = "addr"

const healthPath = "/api/healthy"

// RunFunc has the signature of the web server's run function.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a web server running in-process on a random port.
type Server struct {
	url    string
	client *Client
}

// StartServer boots run with lookupEnv and returns once the health check answers. The listening address is picked up
// from the log line carrying [LogAddrKey], so lookupEnv should point the server at port 0. Server logs go to logSink,
// usually [io.Discard]. The server stops when ctx is cancelled.
func StartServer(ctx context.Context, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	addrCh := make(chan string, 1)
	logger := logging.NewLogger(logSink, slog.LevelDebug, func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == LogAddrKey {
			select {
			case addrCh <- a.Value.String():
			default:
			}
		}
		return a
	})

	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	var addr string
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(context.Cause(ctx), "server stopped before listening")
	case addr = <-addrCh:
	}

	s := &Server{url: "http://" + addr}
	var err error
	if s.client, err = NewClient(s.url); err != nil {
		return nil, errors.Wrap(err, "new client")
	}
	if err = s.client.WaitForReady(ctx, healthPath); err != nil {
		return nil, errors.Wrap(err, "wait for ready", slog.String("url", s.url))
	}
	return s, nil
}

// Client returns the player client created at start-up.
func (s *Server) Client() *Client {
	return s.client
}

// NewClient returns a client with its own cookie jar, i.e. a separate player.
func (s *Server) NewClient() (*Client, error) {
	return NewClient(s.url)
}

func (s *Server) URL() string {
	return s.url
}
