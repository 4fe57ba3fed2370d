// Package identity talks to the hosted auth service that owns principals.
// This server never stores credentials itself; it only deletes principals and
// revokes their sessions.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const identityScope = "https://www.googleapis.com/auth/identitytoolkit"

// ErrUserNotFound is the one tolerable failure: a principal that is already
// gone from the auth service.
var ErrUserNotFound = errors.New("identity_user_not_found")

type Client struct {
	projectID   string
	baseURL     string
	tokenSource oauth2.TokenSource
	client      *http.Client
	now         func() time.Time
}

func NewClient(ctx context.Context, projectID, credentialsPath string) (*Client, error) {
	if strings.TrimSpace(credentialsPath) == "" {
		return nil, fmt.Errorf("identity credentials path required")
	}
	raw, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read identity credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, identityScope)
	if err != nil {
		return nil, fmt.Errorf("load identity credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, fmt.Errorf("identity project id required")
	}
	return &Client{
		projectID:   projectID,
		baseURL:     "https://identitytoolkit.googleapis.com/v1",
		tokenSource: creds.TokenSource,
		client:      http.DefaultClient,
		now:         time.Now,
	}, nil
}

// DeleteAccount removes the principal entirely. Returns ErrUserNotFound when
// the principal does not exist.
func (c *Client) DeleteAccount(ctx context.Context, uid string) error {
	return c.post(ctx, "accounts:delete", map[string]any{"localId": uid})
}

// RevokeSessions invalidates every refresh token issued before now, forcing
// re-authentication on the next token refresh.
func (c *Client) RevokeSessions(ctx context.Context, uid string) error {
	return c.post(ctx, "accounts:update", map[string]any{
		"localId":    uid,
		"validSince": strconv.FormatInt(c.now().Unix(), 10),
	})
}

func (c *Client) post(ctx context.Context, op string, payload map[string]any) error {
	if c == nil {
		return fmt.Errorf("identity client not configured")
	}
	if strings.TrimSpace(payload["localId"].(string)) == "" {
		return fmt.Errorf("identity uid required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal identity payload: %w", err)
	}
	accessToken, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("identity access token: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/%s", c.baseURL, c.projectID, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken.AccessToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	rawBody, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(rawBody, &errResp) == nil &&
		strings.HasPrefix(errResp.Error.Message, "USER_NOT_FOUND") {
		return fmt.Errorf("%w: %s", ErrUserNotFound, errResp.Error.Message)
	}
	return fmt.Errorf("identity %s failed: status %d: %s", op, resp.StatusCode, string(rawBody))
}
