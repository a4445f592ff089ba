package server

import (
	"context"
	"testing"

	"github.com/chatkit/push-dispatch-go/internal/domain/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	servers []*server.Server
}

func (f *fakeRegistry) GetByID(_ context.Context, id string) (*server.Server, error) {
	for _, s := range f.servers {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, server.ErrNotFound
}

func (f *fakeRegistry) List(_ context.Context) ([]*server.Server, error) {
	return f.servers, nil
}

func (f *fakeRegistry) Create(_ context.Context, s *server.Server) error {
	f.servers = append(f.servers, s)
	return nil
}

func (f *fakeRegistry) Delete(_ context.Context, _ string) error { return nil }

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(&fakeRegistry{servers: []*server.Server{
		{ID: "s1", BaseURL: "https://one.example.com"},
		{ID: "s2", BaseURL: "https://two.example.com"},
	}})

	s, err := r.Resolve(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, "https://two.example.com", s.BaseURL)
}

func TestResolveUnknownID(t *testing.T) {
	r := NewResolver(&fakeRegistry{servers: []*server.Server{{ID: "s1"}}})

	_, err := r.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, server.ErrNotFound)
}

func TestResolveOmittedIDSingleServer(t *testing.T) {
	r := NewResolver(&fakeRegistry{servers: []*server.Server{
		{ID: "only", BaseURL: "https://only.example.com"},
	}})

	s, err := r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "only", s.ID)
}

func TestResolveOmittedIDRefusesToGuess(t *testing.T) {
	r := NewResolver(&fakeRegistry{servers: []*server.Server{{ID: "a"}, {ID: "b"}}})

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, server.ErrAmbiguous)
}

func TestResolveOmittedIDNoServers(t *testing.T) {
	r := NewResolver(&fakeRegistry{})

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, server.ErrNotFound)
}
