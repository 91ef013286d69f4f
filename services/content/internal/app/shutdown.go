package internal

import (
	"context"

	"postcraft/pkg/logger"
)

type server interface {
	Shutdown(ctx context.Context) error
}

type closer struct {
	name  string
	close func() error
}

// shutdown stops the server first so in-flight requests finish before the
// clients they use are closed.
func shutdown(ctx context.Context, srv server, log *logger.Logger, closers ...closer) error {
	err := srv.Shutdown(ctx)
	if err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}
	for _, c := range closers {
		if cerr := c.close(); cerr != nil {
			log.Error("Error closing %s: %v", c.name, cerr)
		}
	}
	return err
}
