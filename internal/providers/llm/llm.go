package llm

import "context"

// Provider is a text-completion endpoint: one prompt in, one text blob out.
// Implementations return *RemoteCallFailure for every failure.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Close() error
}
