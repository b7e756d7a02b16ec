package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BlueprintTeam/Blueprint-Daemon/discord"
	"github.com/BlueprintTeam/Blueprint-Daemon/pkg/bucketstore"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Post-call pacing applied after every mutating call, regardless of
	// outcome, to stay under the platform limits.
	defaultPaceDelay = 55 * time.Millisecond

	// Base delay for the linear backoff on TooManyRequests responses.
	defaultBackoffBase = 1500 * time.Millisecond

	// Retries allowed on a single call before it is reported as
	// permanently rate limited.
	defaultMaxRetries = 3

	routeBucketLimit    = 50
	routeBucketDuration = 10 * time.Second
)

// Client represents the REST client. Every platform call the engine makes
// goes through it; pacing and backoff live here and nowhere else.
type Client struct {
	Token string

	HTTP    *http.Client
	Buckets *bucketstore.BucketStore

	// We will manually add the API version
	APIVersion string

	// Used to safely create URLs and is filled if empty
	URLHost   string
	URLScheme string
	UserAgent string

	PaceDelay   time.Duration
	BackoffBase time.Duration
	MaxRetries  int

	Logger zerolog.Logger

	// Swapped out in tests to observe pacing and backoff.
	sleep func(time.Duration)
}

// NewClient makes a new client
func NewClient(token string, logger zerolog.Logger) *Client {
	return &Client{
		Token: token,
		HTTP: &http.Client{
			Timeout: 20 * time.Second,
		},
		Buckets:     bucketstore.NewBucketStore(),
		APIVersion:  "10",
		URLHost:     "discord.com",
		URLScheme:   "https",
		UserAgent:   UserAgent,
		PaceDelay:   defaultPaceDelay,
		BackoffBase: defaultBackoffBase,
		MaxRetries:  defaultMaxRetries,
		Logger:      logger,
		sleep:       time.Sleep,
	}
}

// FetchJSON makes a request to the platform API, retrying on
// TooManyRequests with linearly increasing delay. Mutating calls are
// followed by the pacing delay whether they succeeded or not.
func (c *Client) FetchJSON(ctx context.Context, method, path string, payload interface{}, response interface{}) error {
	var body []byte

	var err error

	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	if method != http.MethodGet {
		defer c.sleep(c.PaceDelay)
	}

	c.Buckets.CreateWaitForBucket(routeKey(method, path), routeBucketLimit, routeBucketDuration)

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(attempt) * c.BackoffBase)
		}

		req, err := http.NewRequestWithContext(ctx, method,
			c.URLScheme+"://"+c.URLHost+"/api/v"+c.APIVersion+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		req.Header.Set("User-Agent", c.UserAgent)
		req.Header.Set("Accept", "application/json")

		if c.Token != "" {
			req.Header.Set("Authorization", "Bot "+c.Token)
		}

		res, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("failed to do request: %w", err)
		}

		responseBody, err := io.ReadAll(res.Body)
		res.Body.Close()

		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}

		blueprintAPIRequests.WithLabelValues(method, strconv.Itoa(res.StatusCode)).Inc()

		switch res.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusNoContent:
			if response != nil && len(responseBody) > 0 {
				if err = json.Unmarshal(responseBody, response); err != nil {
					return fmt.Errorf("failed to unmarshal response: %w", err)
				}
			}

			return nil
		case http.StatusUnauthorized:
			return fmt.Errorf("%s %s: %w", method, path, ErrInvalidToken)
		case http.StatusTooManyRequests:
			blueprintRateLimitHits.Inc()

			var tooManyRequests discord.TooManyRequests

			_ = json.Unmarshal(responseBody, &tooManyRequests)

			if attempt >= c.MaxRetries {
				c.Logger.Warn().
					Str("method", method).
					Str("path", path).
					Msg("Exhausted rate limit retries")

				return fmt.Errorf("%s %s: %w", method, path, ErrRateLimited)
			}

			c.Logger.Debug().
				Str("path", path).
				Float64("retry_after", tooManyRequests.RetryAfter).
				Int("attempt", attempt+1).
				Msg("Request was rate limited")
		default:
			return discord.NewRestError(req, res, responseBody)
		}
	}
}

// routeKey buckets requests by method and major resource so pacing on one
// route does not stall another.
func routeKey(method, path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}

	return method + ":" + strings.Join(parts, "/")
}
