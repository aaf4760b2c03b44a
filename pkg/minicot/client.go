package minicot

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

// SocketClient talks to the external Mini-COT reasoning service over a
// single-message-per-line socket protocol, wrapped in a circuit breaker
// so a hung or erroring service degrades the caller to fallback scoring
// instead of blocking every request.
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
		Name:        "minicot",
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
		log:     slog.With("component", "minicot_client"),
	}
}

// IsAvailable reports the breaker's willingness to try a request; it does
// not itself perform network I/O.
func (c *SocketClient) IsAvailable(_ context.Context) bool {
	return c.breaker.State() != gobreaker.StateOpen
}

type galleryRequest struct {
	Query    string        `json:"query"`
	Memories []galleryItem `json:"memories"`
}

type galleryItem struct {
	ID       string `json:"id"`
	Keywords string `json:"keywords"`
	Snippet  string `json:"snippet"`
	Role     string `json:"role,omitempty"`
}

type galleryResponse struct {
	Gallery []galleryResponseItem `json:"gallery"`
}

type galleryResponseItem struct {
	MemoryID  string  `json:"memory_id"`
	Relevance float64 `json:"relevance"`
	Cot       string  `json:"cot"`
}

// Score submits a batch gallery request and returns per-item relevance
// and reasoning, or an error if the breaker is open or the call fails.
func (c *SocketClient) Score(ctx context.Context, query string, items []GalleryItem) ([]GalleryResult, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.call(ctx, query, items)
	})
	if err != nil {
		return nil, fmt.Errorf("minicot score request: %w", err)
	}
	return result.([]GalleryResult), nil
}

func (c *SocketClient) call(ctx context.Context, query string, items []GalleryItem) ([]GalleryResult, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dialing minicot service: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	req := galleryRequest{Query: query, Memories: make([]galleryItem, len(items))}
	for i, item := range items {
		req.Memories[i] = galleryItem{ID: item.ID, Keywords: item.Keywords, Snippet: item.Snippet, Role: item.Role}
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding minicot request: %w", err)
	}
	if _, err := conn.Write(append(encoded, '\n')); err != nil {
		return nil, fmt.Errorf("writing minicot request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading minicot response: %w", err)
	}

	var resp galleryResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decoding minicot response: %w", err)
	}

	out := make([]GalleryResult, len(resp.Gallery))
	for i, item := range resp.Gallery {
		out[i] = GalleryResult{ID: item.MemoryID, Relevance: item.Relevance, CotReasoning: item.Cot}
	}
	return out, nil
}
