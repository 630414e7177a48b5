package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
)

var (
	// ErrConnection is wrapped around every connection-level failure:
	// refused or reset connections, DNS failures, proxy failures and timeouts.
	// Callers treat it as transient.
	ErrConnection = errors.New("connection error")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// classifyError wraps connection-level failures with ErrConnection.
// Cancellation of the caller's context is passed through untouched so that
// an abandoned task is not mistaken for a network problem.
func classifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	inner := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		inner = urlErr.Err
	}

	// *url.Error itself satisfies net.Error, so only the unwrapped cause counts.
	var netErr net.Error
	if errors.As(inner, &netErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if errors.Is(inner, io.EOF) || errors.Is(inner, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}
