package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatkit/push-dispatch-go/internal/domain/server"
	"github.com/chatkit/push-dispatch-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type serverRepository struct {
	db *database.DB
}

// NewServerRepository creates a new server registry repository
func NewServerRepository(db *database.DB) server.Repository {
	return &serverRepository{db: db}
}

// GetByID retrieves a registered server by identifier
func (r *serverRepository) GetByID(ctx context.Context, id string) (*server.Server, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, base_url, display_name, created_at
		FROM servers
		WHERE id = $1
	`

	s := &server.Server{}
	err := q.QueryRow(ctx, query, id).Scan(&s.ID, &s.BaseURL, &s.DisplayName, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, server.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return s, nil
}

// List returns all registered servers
func (r *serverRepository) List(ctx context.Context) ([]*server.Server, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, base_url, display_name, created_at
		FROM servers
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	var servers []*server.Server
	for rows.Next() {
		s := &server.Server{}
		if err := rows.Scan(&s.ID, &s.BaseURL, &s.DisplayName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read servers: %w", err)
	}

	return servers, nil
}

// Create registers a server
func (r *serverRepository) Create(ctx context.Context, s *server.Server) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO servers (id, base_url, display_name, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := q.Exec(ctx, query, s.ID, s.BaseURL, s.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to register server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return server.ErrExists
	}

	return nil
}

// Delete removes a server from the registry
func (r *serverRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return server.ErrNotFound
	}

	return nil
}
