// Package embedding talks to the external embedding service over a
// single-message-per-line socket protocol, wrapped in a circuit breaker
// the same way pkg/minicot wraps its reasoning service.
package embedding

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/sony/gobreaker"
)

// SocketClient implements pkg/dimension.EmbeddingProvider and the
// warm-path embedder consumed by the overflow queue's drain function.
type SocketClient struct {
	addr    string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

// SocketClientConfig configures a SocketClient's network and breaker
// behavior.
type SocketClientConfig struct {
	Addr                string
	Timeout             time.Duration
	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64
}

// DefaultSocketClientConfig returns sane defaults for the breaker window.
func DefaultSocketClientConfig(addr string) SocketClientConfig {
	return SocketClientConfig{
		Addr:                addr,
		Timeout:             5 * time.Second,
		BreakerMaxRequests:  3,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      30 * time.Second,
		BreakerFailureRatio: 0.6,
	}
}

// NewSocketClient constructs a SocketClient.
func NewSocketClient(cfg SocketClientConfig) *SocketClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "embedding",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
	}

	return &SocketClient{
		addr:    cfg.Addr,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     slog.With("component", "embedding_client"),
	}
}

// IsAvailable reports the breaker's willingness to try a request without
// performing network I/O, used to decide warm vs. cold dispatch.
func (c *SocketClient) IsAvailable(_ context.Context) bool {
	return c.breaker.State() != gobreaker.StateOpen
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Embed satisfies pkg/dimension.EmbeddingProvider: a single text-in,
// vector-out round trip through the circuit breaker.
func (c *SocketClient) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.call(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	return result.([]float32), nil
}

func (c *SocketClient) call(ctx context.Context, text string) ([]float32, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dialing embedding service: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	encoded, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encoding embedding request: %w", err)
	}
	if _, err := conn.Write(append(encoded, '\n')); err != nil {
		return nil, fmt.Errorf("writing embedding request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}

	var resp embedResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("embedding service error: %s", resp.Error)
	}
	return resp.Embedding, nil
}
