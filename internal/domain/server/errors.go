package server

import "errors"

// Server registry errors
var (
	ErrNotFound  = errors.New("server not found")
	ErrAmbiguous = errors.New("server id omitted with multiple servers registered")
	ErrExists    = errors.New("server already registered")
)
