package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wfseller/internal/common"
	"wfseller/internal/session"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

// Session is the authenticated request capability provided by session.Manager.
type Session interface {
	Login(ctx context.Context) error
	Do(ctx context.Context, method, path string, body any) (*session.Response, error)
}

// ItemLookup resolves an item name to its id from the local catalog.
type ItemLookup interface {
	Lookup(name string) (string, error)
}

// Client performs the marketplace operations the seller needs.
type Client struct {
	session Session
	catalog ItemLookup
}

// NewClient creates a Client. catalog may be nil when only live lookups are
// needed, for instance while the catalog itself is being rebuilt.
func NewClient(s Session, catalog ItemLookup) *Client {
	return &Client{session: s, catalog: catalog}
}

// send issues an authenticated request. If the marketplace rejected the
// session, it signs in once more and retries.
func (c *Client) send(ctx context.Context, method, path string, body any) (*session.Response, error) {
	resp, err := c.session.Do(ctx, method, path, body)
	if !errors.Is(err, common.ErrSessionExpired) {
		return resp, err
	}

	log.Warn("Session expired, signing in again", "Endpoint", method+" "+path)
	if loginErr := c.session.Login(ctx); loginErr != nil {
		return nil, fmt.Errorf("%w (sign in again failed: %w)", err, loginErr)
	}

	return c.session.Do(ctx, method, path, body)
}

// sendJSON issues the request and decodes a 2xx response body into out.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) (*session.Response, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		return resp, statusError(method, path, resp)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("failed to unmarshal %s %s response: %w", method, path, err)
		}
	}

	return resp, nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func statusError(method, path string, resp *session.Response) error {
	body := string(resp.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, body)
}
