package docstore

import (
	"context"
	"fmt"

	"github.com/georgemunganga/bikeshop-backend/internal/config"
)

// Open builds the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		return NewMemoryStore(), nil
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case config.DriverFirestore:
		return OpenFirestore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}
