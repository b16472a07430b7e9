// Package apiclient is a typed client over the fifty server API, used by the
// CLI commands.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brk3/fifty/internal/server"
	"github.com/brk3/fifty/pkg/versioninfo"
)

type Client struct {
	BaseURL string
	// UserID is sent as X-User-ID for servers running with auth disabled.
	UserID string
	HTTP   *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    http.DefaultClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.UserID != "" {
		req.Header.Set("X-User-ID", c.UserID)
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", method, path, res.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Client) Profile(ctx context.Context) (*server.ProfileResponse, error) {
	var out server.ProfileResponse
	if err := c.do(ctx, "GET", "/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Progress(ctx context.Context) (*server.DayResponse, error) {
	var out server.DayResponse
	if err := c.do(ctx, "GET", "/progress", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleHabit(ctx context.Context, habitID string) (*server.ToggleResponse, error) {
	var out server.ToggleResponse
	if err := c.do(ctx, "POST", "/habits/"+habitID+"/toggle", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Sync(ctx context.Context) (*server.SyncResponse, error) {
	var out server.SyncResponse
	if err := c.do(ctx, "POST", "/sync", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SyncStatus(ctx context.Context) (*server.SyncStatusResponse, error) {
	var out server.SyncStatusResponse
	if err := c.do(ctx, "GET", "/sync/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, "POST", "/reset", nil)
}

func (c *Client) Version(ctx context.Context) (*versioninfo.VersionInfo, error) {
	var out versioninfo.VersionInfo
	if err := c.do(ctx, "GET", "/version", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
