package client

import (
	"context"

	errs "github.com/userdeck/userdeck/pkg/errors"
	"github.com/userdeck/userdeck/pkg/types"
)

// Login exchanges a username/password pair for a bearer grant. The grant's
// token is stored in the session before Login returns, so the very next call
// goes out authenticated. A success response without a token is treated as a
// client-side failure, not a session.
func (c *Client) Login(ctx context.Context, username, password string) (*types.TokenGrant, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		})
	if token := c.store.GetCredential(); token != "" {
		req.SetAuthToken(token)
	}

	resp, err := req.Post("/login")
	if err != nil {
		c.warn("login request failed", map[string]interface{}{"error": err.Error()})
		return nil, classifyTransportError(err)
	}

	grant, err := decode[types.TokenGrant](c, resp)
	if err != nil {
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, errs.NewConfigError("login response missing access token")
	}

	c.store.SetCredential(grant.AccessToken)
	c.debug("session established", map[string]interface{}{"username": username})
	return &grant, nil
}

// Logout ends the session on the backend. The local credential is cleared
// whatever the transport outcome, so a dead backend can never wedge the
// client in a signed-in state.
func (c *Client) Logout(ctx context.Context) error {
	defer func() {
		c.store.ClearCredential()
		c.debug("session cleared", nil)
	}()

	_, err := Post[any](ctx, c, "/logout", nil)
	return err
}
