package portalsdk

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

func loginPath(role Role) (string, error) {
	switch role {
	case RoleAdmin:
		return "/auth/admin/login", nil
	case RoleResearcher:
		return "/auth/researcher/login", nil
	}
	return "", fmt.Errorf("portalsdk: unknown role %q", role)
}

// Login signs in through the endpoint for role and saves the access token.
// otp is only needed for administrators with TOTP enabled.
func (c *Client) Login(ctx context.Context, role Role, email, password, otp string) (User, error) {
	path, err := loginPath(role)
	if err != nil {
		return User{}, err
	}
	r, err := jsonRequest(http.MethodPost, path, LoginRequest{Email: email, Password: password, OTP: otp})
	if err != nil {
		return User{}, err
	}

	body, err := c.public(ctx, r)
	if err != nil {
		return User{}, err
	}
	var out LoginResponse
	if err := decode(body, &out); err != nil {
		return User{}, err
	}
	if err := c.Tokens.Save(ctx, out.AccessToken); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// VerifyToken returns the account behind the stored access token.
func (c *Client) VerifyToken(ctx context.Context) (User, error) {
	var out UserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/verify-token", nil, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// Logout ends the session on the server. The stored token is cleared even
// when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if cerr := c.Tokens.Clear(ctx); err == nil {
		err = cerr
	}
	return err
}

// CompleteProfile redeems an invitation token.
func (c *Client) CompleteProfile(ctx context.Context, token string, form ProfileForm) (User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct{ k, v string }{
		{"name", form.Name},
		{"password", form.Password},
		{"faculty", form.Faculty},
		{"bio", form.Bio},
		{"title", form.Title},
	} {
		if err := mw.WriteField(f.k, f.v); err != nil {
			return User{}, err
		}
	}
	if len(form.Picture) > 0 {
		name := form.PictureName
		if name == "" {
			name = "picture"
		}
		fw, err := mw.CreateFormFile("profilePicture", name)
		if err != nil {
			return User{}, err
		}
		if _, err := fw.Write(form.Picture); err != nil {
			return User{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return User{}, err
	}

	body, err := c.public(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/complete-profile/" + url.PathEscape(token),
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return User{}, err
	}
	var out UserResponse
	if err := decode(body, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}
