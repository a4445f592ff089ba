package server

import "time"

// Server is one registered workspace endpoint.
type Server struct {
	ID          string
	BaseURL     string
	DisplayName string
	CreatedAt   time.Time
}
