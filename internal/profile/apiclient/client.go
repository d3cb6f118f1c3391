// Package apiclient implements profile.Repository over the greenleaf REST API.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"greenleaf/internal/logging"
	"greenleaf/internal/profile"
)

const (
	profilePath     = "/api/profile/"
	requestIDHeader = "X-Request-ID"
	maxFetchRetries = 3
)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.rest.SetAuthToken(token)
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rest.SetTimeout(d)
		}
	}
}

// WithLogger enables request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// WithBackOff replaces the retry policy used by Fetch.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// Client talks to the profile API. Safe for concurrent use.
type Client struct {
	baseURL    string
	rest       *resty.Client
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// Ensure Client implements profile.Repository.
var _ profile.Repository = (*Client)(nil)

type apiError struct {
	Error string `json:"error"`
}

// New creates a client for the API at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    resty.New(),
		logger:  zap.NewNop(),
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries)
		},
	}
	c.rest.SetBaseURL(c.baseURL)
	c.rest.SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}

	c.rest.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get(requestIDHeader) == "" {
			req.SetHeader(requestIDHeader, uuid.NewString())
		}
		return nil
	})
	c.rest.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		fields := []zap.Field{
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
			zap.String("request_id", resp.Request.Header.Get(requestIDHeader)),
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			c.logger.Error("http call completed with internal error", fields...)
		} else {
			c.logger.Debug("http call completed", fields...)
		}
		return nil
	})
	c.rest.OnError(func(req *resty.Request, err error) {
		c.logger.Error("http call completed with error",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err),
		)
	})
	return c
}

// Fetch loads the profile, retrying network failures and 5xx responses.
func (c *Client) Fetch(ctx context.Context) (profile.Snapshot, error) {
	var snap profile.Snapshot
	op := func() error {
		var result profile.Snapshot
		resp, err := c.rest.R().
			SetContext(ctx).
			SetResult(&result).
			SetError(&apiError{}).
			Get(profilePath)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("fetch profile: %w", err)
		}
		if resp.IsError() {
			err := statusError(resp)
			if resp.StatusCode() >= http.StatusInternalServerError {
				return err
			}
			return backoff.Permanent(err)
		}
		snap = result
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return profile.Snapshot{}, err
	}
	return c.resolve(snap), nil
}

// Save sends the edit buffer as a multipart PATCH. It is not retried: the
// upload is not idempotent with respect to stored image files.
func (c *Client) Save(ctx context.Context, u profile.Update) (profile.Snapshot, error) {
	var result profile.Snapshot
	req := c.rest.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&apiError{}).
		SetMultipartFormData(map[string]string{
			"first_name":   u.FirstName,
			"last_name":    u.LastName,
			"birthdate":    u.Birthdate,
			"gender":       u.Gender,
			"phone_number": u.PhoneNumber,
		})
	if u.ImagePath != "" {
		req.SetFile("profile_image", u.ImagePath)
	}

	resp, err := req.Patch(profilePath)
	if err != nil {
		return profile.Snapshot{}, fmt.Errorf("save profile: %w", err)
	}
	if resp.IsError() {
		return profile.Snapshot{}, statusError(resp)
	}
	return c.resolve(result), nil
}

// resolve turns server-relative image paths into absolute URLs.
func (c *Client) resolve(s profile.Snapshot) profile.Snapshot {
	if strings.HasPrefix(s.ProfileImageRef, "/") {
		s.ProfileImageRef = c.baseURL + s.ProfileImageRef
	}
	return s
}

func statusError(resp *resty.Response) error {
	msg := http.StatusText(resp.StatusCode())
	if e, ok := resp.Error().(*apiError); ok && e != nil && e.Error != "" {
		msg = e.Error
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", profile.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", profile.ErrNotFound, msg)
	case http.StatusBadRequest:
		// The server already prefixes validation messages with "invalid field: ".
		return fmt.Errorf("%w: %s", profile.ErrInvalidField, strings.TrimPrefix(msg, profile.ErrInvalidField.Error()+": "))
	}
	return errors.New("profile api: " + msg)
}
