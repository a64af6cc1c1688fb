package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/repliq-app/repliq/internal/store"
)

// openStore returns the MongoDB store when MONGO_URI is set, otherwise an
// in-memory store for development. The cleanup func disconnects Mongo.
func openStore(ctx context.Context) (store.Store, func(), error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		slog.Warn("MONGO_URI not set, using in-memory store (data is not persisted)")
		return store.NewMemory(), func() {}, nil
	}

	database := os.Getenv("MONGO_DATABASE")
	if database == "" {
		database = "repliq"
	}

	m, err := store.NewMongo(ctx, uri, database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := m.Close(context.Background()); err != nil {
			slog.Error("Failed to disconnect from mongodb", "err", err)
		}
	}
	slog.Info("Connected to mongodb", "database", database)
	return m, cleanup, nil
}
