package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	json "github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

var ErrMissingExternalID = errors.New("profile service returned no uuid")

// APIError is a non-2xx answer from the profile service.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("multilogin: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ProfileRegistrar registers a generated profile remotely and returns its
// external identifier.
type ProfileRegistrar interface {
	CreateProfile(ctx context.Context, p *models.Profile) (string, error)
}

// MultiloginClient is a thin wrapper over the external profile-management API.
type MultiloginClient struct {
	client *resty.Client
}

type MultiloginOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retries int
}

func NewMultiloginClient(opts MultiloginOptions) *MultiloginClient {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil || r == nil {
					return true
				}
				return r.StatusCode() >= 500
			})
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		log.Debug().Str("method", req.Method).Str("url", req.URL).Msg("multilogin request")
		return nil
	})

	return &MultiloginClient{client: client}
}

// Post sends body as JSON to path and decodes the response into out.
func (c *MultiloginClient) Post(ctx context.Context, path string, body, out interface{}) error {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("multilogin: POST %s: %w", path, err)
	}
	if resp.IsError() {
		return &APIError{
			Method:     "POST",
			Path:       path,
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.String(), 256),
		}
	}
	return nil
}

// CreateProfile registers p and returns the identifier the service assigned.
func (c *MultiloginClient) CreateProfile(ctx context.Context, p *models.Profile) (string, error) {
	var out struct {
		UUID string `json:"uuid"`
	}
	if err := c.Post(ctx, "/profile", p.Payload(), &out); err != nil {
		return "", err
	}
	if out.UUID == "" {
		return "", ErrMissingExternalID
	}
	return out.UUID, nil
}

// Reachable reports whether the service answers HTTP at all; any status
// code counts as reachable.
func (c *MultiloginClient) Reachable(ctx context.Context) error {
	_, err := c.client.R().SetContext(ctx).Get("/")
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
