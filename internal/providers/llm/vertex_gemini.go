package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const vertexProviderName = "vertex-gemini"

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Name() string { return vertexProviderName }

func (v *VertexGemini) Close() error { return v.client.Close() }

// Complete streams the candidate text and returns it once the stream ends.
// A partially received answer is discarded on error.
func (v *VertexGemini) Complete(ctx context.Context, prompt string) (string, error) {
	var full strings.Builder

	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", Wrap(vertexProviderName, err, classifyVertex)
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
					full.WriteString(string(t))
				}
			}
		}
	}
	return full.String(), nil
}

func classifyVertex(err error) (FailureKind, bool) {
	var blocked *vertexgenai.BlockedError
	if errors.As(err, &blocked) {
		return KindMalformed, true
	}

	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindAuth, true
	case codes.ResourceExhausted:
		return KindQuota, true
	case codes.DeadlineExceeded:
		return KindTimeout, true
	case codes.Canceled:
		return KindCanceled, true
	case codes.Unavailable, codes.Internal:
		return KindUnavailable, true
	case codes.InvalidArgument, codes.FailedPrecondition:
		return KindMalformed, true
	}
	return "", false
}
