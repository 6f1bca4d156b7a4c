// Package provider holds the plumbing shared by the vendor clients: the HTTP
// client each one is given, and the classification of transport failures.
package provider

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	ai "github.com/novelvision/llmgate"
)

// maxBodyBytes caps how much of an error response body is kept for diagnostics.
const maxBodyBytes = 4096

// NewHTTPClient returns an HTTP client whose requests are bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 32
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// ClassifyError converts a transport-level failure into a *ai.ProviderError.
// Errors that are already classified are returned unchanged.
func ClassifyError(err error) *ai.ProviderError {
	if err == nil {
		return nil
	}

	var pe *ai.ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	if isTimeout(err) {
		return ai.NewTimeoutError(err)
	}
	if isConnectionError(err) {
		return ai.NewConnectionError(err)
	}
	return ai.NewUnknownError(err)
}

// isTimeout checks for deadline and network timeout errors.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// isConnectionError checks for DNS, refused, reset and truncated connections.
func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET,
			syscall.ECONNREFUSED,
			syscall.ECONNABORTED,
			syscall.EPIPE:
			return true
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	// Fallback for SDKs that flatten the cause into a string
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"no such host",
		"broken pipe",
		"server closed idle connection",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// ParseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	// Try parsing as seconds (most common)
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP-date (RFC 7231)
	if t, err := http.ParseTime(header); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			return delay
		}
	}

	return 0
}

// TruncateBody shortens a response body for inclusion in an error message.
// The cut never splits a UTF-8 sequence.
func TruncateBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= maxBodyBytes {
		return body
	}
	cut := maxBodyBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

// EmptyCompletion reports a response whose first choice carried no text.
// It is classified like a response with no choices at all.
func EmptyCompletion(where, finishReason string) *ai.ProviderError {
	detail := where + ": empty content"
	if finishReason != "" {
		detail += " (finish reason " + finishReason + ")"
	}
	return ai.NewNoChoicesError(detail)
}

// ReadBody reads and truncates a response body, ignoring read errors.
func ReadBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	return TruncateBody(string(data))
}
