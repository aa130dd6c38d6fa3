package crmclient

import (
	"context"
	"net/http"
	"net/url"

	"polimata/pkg/domain"
)

// Login exchanges email and password for an access token.
// The backend expects an OAuth2 password form where username carries the email.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AccessToken, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var tok domain.AccessToken
	if err := c.doForm(ctx, "/auth/login", form, &tok); err != nil {
		return domain.AccessToken{}, err
	}
	return tok, nil
}

func (c *Client) Register(ctx context.Context, in domain.RegisterInput) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, in, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
