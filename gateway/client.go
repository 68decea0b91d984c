package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FreshCart/models"
	"FreshCart/tokenstore"

	"github.com/labstack/gommon/log"
)

// ErrUnauthorized 访问令牌被后端拒绝且无法刷新
var ErrUnauthorized = errors.New("gateway: unauthorized")

// Client is the typed face of the upstream backend API. Authenticated
// calls attach the session's bearer token and retry exactly once through
// a token refresh when the backend answers 401. An irrecoverable refresh
// clears the stored tokens.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *tokenstore.Store
}

func NewClient(baseURL string, timeout time.Duration, tokens *tokenstore.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// exchange posts a credential payload and decodes the auth envelope on
// any status. Wrong passwords and rejected sessions come back as
// {success:false, message} rather than an error; errors mean the backend
// could not be talked to at all.
func (c *Client) exchange(ctx context.Context, path string, body interface{}) (*models.AuthResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var resp models.AuthResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("backend POST %s: decode: %w", path, err)
	}
	if !resp.Success && resp.Message == "" {
		resp.Message = fmt.Sprintf("request failed with status %d", res.StatusCode)
	}
	return &resp, nil
}

func (c *Client) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error) {
	return c.exchange(ctx, "/api/auth/register", req)
}

func (c *Client) SignIn(ctx context.Context, req *models.SignInRequest) (*models.AuthResponse, error) {
	return c.exchange(ctx, "/api/auth/login", req)
}

// ExchangeGoogleSession trades an identity-provider session for an
// application token pair.
func (c *Client) ExchangeGoogleSession(ctx context.Context, sess *models.ExternalSession) (*models.AuthResponse, error) {
	return c.exchange(ctx, "/api/auth/google/session", sess)
}

func (c *Client) SignOut(ctx context.Context, sessionID string) error {
	return c.do(ctx, sessionID, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) Me(ctx context.Context, sessionID string) (*models.User, error) {
	var resp struct {
		Success bool         `json:"success"`
		User    *models.User `json:"user"`
		Data    *models.User `json:"data"`
	}
	if err := c.do(ctx, sessionID, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	// 两种返回格式后端都出现过
	if resp.User != nil {
		return resp.User, nil
	}
	return resp.Data, nil
}

func (c *Client) OnboardingStatus(ctx context.Context, sessionID string) (bool, error) {
	var resp struct {
		Success   bool                     `json:"success"`
		Completed *bool                    `json:"completed"`
		Data      *models.OnboardingStatus `json:"data"`
	}
	if err := c.do(ctx, sessionID, http.MethodGet, "/api/users/onboarding-status", nil, &resp); err != nil {
		return false, err
	}
	if resp.Completed != nil {
		return *resp.Completed, nil
	}
	if resp.Data != nil {
		return resp.Data.Completed, nil
	}
	return false, nil
}

// refresh trades the stored refresh token for a new pair. Any failure
// clears the stored tokens: the session is no longer recoverable.
func (c *Client) refresh(ctx context.Context, sessionID string) error {
	pair, ok := c.tokens.Tokens(ctx, sessionID)
	if !ok {
		return ErrUnauthorized
	}
	if pair.RefreshToken == "" {
		// 会话交换可能只下发访问令牌，没有刷新令牌就无从恢复
		if err := c.tokens.ClearTokens(ctx, sessionID); err != nil {
			log.Warnf("failed to clear tokens without refresh token: %v", err)
		}
		return ErrUnauthorized
	}

	body, _ := json.Marshal(map[string]string{"refreshToken": pair.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		if err := c.tokens.ClearTokens(ctx, sessionID); err != nil {
			log.Warnf("failed to clear tokens after refresh rejection: %v", err)
		}
		return ErrUnauthorized
	}

	var resp models.AuthResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil || resp.AccessToken == "" {
		_ = c.tokens.ClearTokens(ctx, sessionID)
		return ErrUnauthorized
	}
	return c.tokens.SetTokens(ctx, sessionID, resp.AccessToken, resp.RefreshToken)
}

func (c *Client) do(ctx context.Context, sessionID, method, path string, body, out interface{}) error {
	status, err := c.once(ctx, sessionID, method, path, body, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx, sessionID); err != nil {
			return ErrUnauthorized
		}
		status, err = c.once(ctx, sessionID, method, path, body, out)
		if err != nil {
			return err
		}
	}
	if status >= http.StatusBadRequest {
		if status == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return fmt.Errorf("backend %s %s: status %d", method, path, status)
	}
	return nil
}

func (c *Client) once(ctx context.Context, sessionID, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if pair, ok := c.tokens.Tokens(ctx, sessionID); ok {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusBadRequest && out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("backend %s %s: decode: %w", method, path, err)
		}
	}
	return res.StatusCode, nil
}
