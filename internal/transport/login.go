package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

const loginSource = "pc_login_modal_:homepage_redesign"

var tokenRegex = regexp.MustCompile(`token *?= "(.*?)",`)

// ErrTokenNotFound is returned when a page does not embed a session token.
var ErrTokenNotFound = errors.New("session token not found")

// FindToken extracts the session token embedded in a page.
func FindToken(page []byte) (string, error) {
	groups := tokenRegex.FindSubmatch(page)
	if len(groups) < 2 {
		return "", ErrTokenNotFound
	}
	return string(groups[1]), nil
}

type LoginResult struct {
	Success bool
	Message string
	// Raw is the whole authentication payload, it carries account details.
	Raw map[string]any
}

// truthy reads the success flag, which the platform sends as a number, a
// string or a boolean depending on the endpoint version.
func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		n, err := strconv.Atoi(v)
		return err == nil && n != 0
	}
	return false
}

// Token fetches the landing page and returns its session token.
func (c *Client) Token(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, Get(""))
	if err != nil {
		return "", err
	}
	token, err := FindToken(res.Body)
	if err != nil {
		c.tel.ReportBroken(report_client_token, err)
		return "", err
	}
	return token, nil
}

// Login authenticates the session with the given credentials.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	res, err := c.Call(ctx, Post("front/authenticate", url.Values{
		"from":     {loginSource},
		"email":    {email},
		"password": {password},
		"token":    {token},
	}))
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	var raw map[string]any
	err = res.JSON(&raw)
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("decode: %w", err))
		return LoginResult{}, fmt.Errorf("login: decode response: %w", err)
	}

	message, _ := raw["message"].(string)
	result := LoginResult{
		Success: truthy(raw["success"]),
		Message: message,
		Raw:     raw,
	}
	if !result.Success {
		return result, &AuthenticationFailure{Reason: message}
	}
	return result, nil
}
