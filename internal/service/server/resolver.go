package server

import (
	"context"
	"fmt"

	"github.com/chatkit/push-dispatch-go/internal/domain/server"
)

type resolver struct {
	repo server.Repository
}

// NewResolver creates a server resolver backed by the registry.
func NewResolver(repo server.Repository) server.Resolver {
	return &resolver{repo: repo}
}

// Resolve maps a payload server id to a registered server. When the payload
// omits the id, resolution succeeds only in a single-server installation;
// guessing among several registered servers would ack or render against the
// wrong workspace.
func (r *resolver) Resolve(ctx context.Context, id string) (*server.Server, error) {
	if id != "" {
		s, err := r.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve server %q: %w", id, err)
		}
		return s, nil
	}

	servers, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve single server: %w", err)
	}
	switch len(servers) {
	case 0:
		return nil, server.ErrNotFound
	case 1:
		return servers[0], nil
	default:
		return nil, server.ErrAmbiguous
	}
}
