package uploader

import (
	"context"
	"fmt"
	"log/slog"
)

// Resolver finds or creates the per-ticket folder under a fixed root
// collection. Resolution is idempotent for a given name; two racing
// requests for the same ticket can still each create a folder — there is
// no locking on the remote store, and the duplicate is an accepted risk.
type Resolver struct {
	store  Store
	rootID string
	logger *slog.Logger
}

// NewResolver creates a Resolver rooted at the given collection.
func NewResolver(store Store, rootID string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		store:  store,
		rootID: rootID,
		logger: logger,
	}
}

// ResolveFolder returns the id of the folder named name under the root,
// creating it when absent. Matching is exact and case-sensitive.
func (r *Resolver) ResolveFolder(ctx context.Context, name string) (string, error) {
	folders, err := r.store.ListChildFolders(ctx, r.rootID)
	if err != nil {
		return "", fmt.Errorf("listing folders under root: %w", err)
	}

	for _, f := range folders {
		if f.Name == name {
			r.logger.Debug("reusing existing folder",
				slog.String("name", name),
				slog.String("folder_id", f.ID),
			)

			return f.ID, nil
		}
	}

	created, err := r.store.CreateFolder(ctx, r.rootID, name)
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}

	r.logger.Info("created ticket folder",
		slog.String("name", name),
		slog.String("folder_id", created.ID),
	)

	return created.ID, nil
}
