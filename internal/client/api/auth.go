package api

import (
	"context"
	"net/http"
)

// Register creates an account and, when the server issues a token right
// away, signs the client in. A freshly registered non-admin account usually
// fails with CodeAccountPendingApproval until an administrator approves it.
func (c *Client) Register(ctx context.Context, username, password string) (Session, error) {
	return c.authenticate(ctx, "/auth/register", username, password)
}

// Login exchanges credentials for a session and installs it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	return c.authenticate(ctx, "/auth/login", username, password)
}

// authenticate treats any JSON object carrying a "token" member as success,
// whatever the status code. An empty token is invalid_response. A failed
// attempt leaves the current session as is.
func (c *Client) authenticate(ctx context.Context, path, username, password string) (Session, error) {
	resp, err := c.do(ctx, http.MethodPost, path, nil, credentialsBody{Username: username, Password: password}, false)
	if err != nil {
		return Session{}, err
	}

	o, decodeErr := decodeObject(resp.body)
	if decodeErr == nil && o.has("token") {
		s, err := parseSession(o)
		if err != nil {
			return Session{}, protocolError(resp.status, err)
		}
		c.session = s
		return s, nil
	}

	if !resp.ok() {
		return Session{}, resp.failure()
	}
	if decodeErr != nil {
		return Session{}, protocolError(resp.status, decodeErr)
	}

	msg, _ := o.string("error", false)
	if msg == "" {
		msg = CodeUnknownError
	}
	return Session{}, serverError(resp.status, msg)
}

// Health reports the server status string ("ok" when the database is reachable).
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil, false)
	if err != nil {
		return "", err
	}
	o, decodeErr := decodeObject(resp.body)
	if !resp.ok() {
		if decodeErr == nil {
			if status, _ := o.string("status", false); status != "" {
				return "", serverError(resp.status, status)
			}
		}
		return "", resp.failure()
	}
	if decodeErr != nil {
		return "", protocolError(resp.status, decodeErr)
	}
	status, err := o.string("status", true)
	if err != nil {
		return "", protocolError(resp.status, err)
	}
	return status, nil
}
