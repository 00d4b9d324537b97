//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/2beens/fittracker/internal/session"

	"github.com/stretchr/testify/require"
)

type tokenResponse struct {
	Token string        `json:"token"`
	State session.State `json:"state"`
}

// client drives the service the way the browser app does: one session token, JSON bodies.
type client struct {
	t     *testing.T
	ctx   context.Context
	token string
}

func newClient(ctx context.Context, t *testing.T) *client {
	c := &client{t: t, ctx: ctx}

	var created tokenResponse
	status := c.do(http.MethodPost, "/session", nil, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.Token)
	require.Equal(t, session.PageLogin, created.State.Page)

	c.token = created.Token
	return c
}

// do sends the request and decodes a 2xx body into out, when out is not nil.
func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(c.ctx, method, fmt.Sprintf("%s%s", serverEndpoint, path), reader)
	require.NoError(c.t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(session.TokenHeader, c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		require.NoError(c.t, json.Unmarshal(respBytes, out), string(respBytes))
	}
	return resp.StatusCode
}

func (c *client) navigate(event session.EventKind) (session.State, int) {
	var state session.State
	status := c.do(http.MethodPost, "/session/navigate", map[string]string{"event": string(event)}, &state)
	return state, status
}

func (c *client) register(email, username, password string) (session.State, int) {
	var state session.State
	status := c.do(http.MethodPost, "/a/register", session.RegisterForm{
		Email:    email,
		Username: username,
		Password: password,
	}, &state)
	return state, status
}

// login and logout hand out a new token, the client switches to it on success.
func (c *client) login(identifier, password string) (session.State, int) {
	var resp tokenResponse
	status := c.do(http.MethodPost, "/a/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &resp)
	if status == http.StatusOK {
		c.token = resp.Token
	}
	return resp.State, status
}

func (c *client) logout() (session.State, int) {
	var resp tokenResponse
	status := c.do(http.MethodPost, "/a/logout", nil, &resp)
	if status == http.StatusOK {
		c.token = resp.Token
	}
	return resp.State, status
}

// signUp registers a fresh user and logs in, leaving the session on the home page.
func (c *client) signUp(email, username, password string) {
	c.t.Helper()

	_, status := c.navigate(session.EventGoRegister)
	require.Equal(c.t, http.StatusOK, status)

	state, status := c.register(email, username, password)
	require.Equal(c.t, http.StatusCreated, status)
	require.Equal(c.t, session.PageLogin, state.Page)

	state, status = c.login(username, password)
	require.Equal(c.t, http.StatusOK, status)
	require.Equal(c.t, session.PageHome, state.Page)
	require.Equal(c.t, username, state.Username)
}
