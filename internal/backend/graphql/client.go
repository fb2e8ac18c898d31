// Package graphql talks to the canonical record backend over its GraphQL
// query/mutation protocol.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/luci/pkg/retrylimit"
)

type Options struct {
	Timeout time.Duration // per HTTP attempt
	RPS     float64       // starting request rate
	Retry   retrylimit.Config
	Logger  zerolog.Logger
	HTTP    *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	url     string
	http    *http.Client
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
	log     zerolog.Logger
}

func New(url string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retrylimit.DefaultConfig()
		opts.Retry.Logger = opts.Logger
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	rps := rate.Limit(opts.RPS)
	return &Client{
		url:     url,
		http:    hc,
		limiter: retrylimit.NewAdaptiveLimiter(rps, 1, rps*4, 1, 0.5),
		retry:   opts.Retry,
		log:     opts.Logger,
	}
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Error is a GraphQL-level failure carried in a 200 response.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 1 {
		return "graphql: " + e.Messages[0]
	}
	return fmt.Sprintf("graphql: %d errors, first: %s", len(e.Messages), e.Messages[0])
}

// do runs one operation and decodes its data into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	reqID := uuid.NewString()

	err = retrylimit.Do(ctx, c.limiter, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return retrylimit.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", reqID)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &retrylimit.StatusError{Code: resp.StatusCode, Body: truncate(raw)}
		}

		var parsed response
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return retrylimit.Permanent(fmt.Errorf("decode response: %w", err))
		}
		if len(parsed.Errors) > 0 {
			ge := &Error{}
			for _, e := range parsed.Errors {
				ge.Messages = append(ge.Messages, e.Message)
			}
			return retrylimit.Permanent(ge)
		}
		if out == nil || len(parsed.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(parsed.Data, out); err != nil {
			return retrylimit.Permanent(fmt.Errorf("decode data: %w", err))
		}
		return nil
	})
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("request_id", reqID).Msg("graphql call failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

// IsGraphQLError reports whether err came back in the errors array of a
// response rather than from transport.
func IsGraphQLError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}
