// Package cmd provides the shared construction helpers the binaries use to
// wire persistence, the event bus, the model provider, and the run guard
// from configuration values.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/symposiumhq/symposium/pkg/persistence"
	"github.com/symposiumhq/symposium/pkg/persistence/file"
	"github.com/symposiumhq/symposium/pkg/persistence/postgresql"
)

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic("failed to initialize postgresql persistence: " + err.Error())
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)

	return parts[0]
}
