package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type FailureKind string

const (
	KindNetwork     FailureKind = "network"
	KindAuth        FailureKind = "auth"
	KindQuota       FailureKind = "quota"
	KindTimeout     FailureKind = "timeout"
	KindCanceled    FailureKind = "canceled"
	KindMalformed   FailureKind = "malformed"
	KindUnavailable FailureKind = "unavailable"
	// KindNotConfigured means no provider was set up, so nothing was called.
	KindNotConfigured FailureKind = "not_configured"
)

// RemoteCallFailure is the only error type that leaves a provider.
type RemoteCallFailure struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (e *RemoteCallFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: remote call failed (%s)", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: remote call failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *RemoteCallFailure) Unwrap() error { return e.Err }

// ParseFailure means the endpoint answered but nothing usable could be
// extracted. Callers treat it exactly like a RemoteCallFailure.
type ParseFailure struct {
	Op     string
	Reason string
}

func (e *ParseFailure) Error() string { return e.Op + ": unusable response: " + e.Reason }

var ErrNoProvider = errors.New("no language model provider configured")

// IsFallbackTrigger reports whether err should send the caller down the local path.
func IsFallbackTrigger(err error) bool {
	if err == nil {
		return false
	}
	var rf *RemoteCallFailure
	var pf *ParseFailure
	return errors.As(err, &rf) || errors.As(err, &pf) || errors.Is(err, ErrNoProvider)
}

// KindOf extracts the failure kind, or "" for non-remote errors.
func KindOf(err error) FailureKind {
	if errors.Is(err, ErrNoProvider) {
		return KindNotConfigured
	}
	var rf *RemoteCallFailure
	if errors.As(err, &rf) {
		return rf.Kind
	}
	var pf *ParseFailure
	if errors.As(err, &pf) {
		return KindMalformed
	}
	return ""
}

// Wrap converts any error from a provider SDK into a RemoteCallFailure.
// Provider-specific classification runs first through classify, if given.
func Wrap(provider string, err error, classify func(error) (FailureKind, bool)) error {
	if err == nil {
		return nil
	}
	var rf *RemoteCallFailure
	if errors.As(err, &rf) {
		return err
	}
	if classify != nil {
		if kind, ok := classify(err); ok {
			return &RemoteCallFailure{Kind: kind, Provider: provider, Err: err}
		}
	}
	return &RemoteCallFailure{Kind: genericKind(err), Provider: provider, Err: err}
}

func genericKind(err error) FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindNetwork
}

// KindForHTTPStatus maps an upstream HTTP status to a failure kind.
func KindForHTTPStatus(status int) FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindQuota
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	default:
		return KindMalformed
	}
}
