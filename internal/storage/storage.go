package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("storage: object not found")

// Fetcher reads small configuration assets (lexicon, prompt templates).
type Fetcher interface {
	Fetch(ctx context.Context, objectName string) ([]byte, error)
}
