package server

import "context"

// Repository defines the server registry interface
type Repository interface {
	GetByID(ctx context.Context, id string) (*Server, error)
	List(ctx context.Context) ([]*Server, error)
	Create(ctx context.Context, s *Server) error
	Delete(ctx context.Context, id string) error
}

// Resolver maps an event's server identifier, possibly absent, to a
// registered server.
type Resolver interface {
	// Resolve looks up the server for id. An empty id succeeds only when
	// exactly one server is registered.
	Resolve(ctx context.Context, id string) (*Server, error)
}
