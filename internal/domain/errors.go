package domain

import "errors"

var (
	ErrNotFound      = errors.New("target not found")
	ErrAlreadyActive = errors.New("target already monitored")
	ErrInvalidConfig = errors.New("invalid target config")
	ErrPersistence   = errors.New("persistence failure")
	ErrDuplicateURL  = errors.New("url already registered")
	ErrInvalidURL    = errors.New("invalid url")
	ErrShuttingDown  = errors.New("scheduler shutting down")
)
