package portalsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Invite emails an invitation to a new researcher.
func (c *Client) Invite(ctx context.Context, email string) (string, error) {
	var out MessageResponse
	err := c.doJSON(ctx, http.MethodPost, "/admin/researchers/invite", InviteRequest{Email: email}, &out)
	return out.Message, err
}

// AddResearcher creates an active researcher with an emailed password.
func (c *Client) AddResearcher(ctx context.Context, req AddResearcherRequest) (User, error) {
	var out ResearcherResponse
	if err := c.doJSON(ctx, http.MethodPost, "/admin/researchers/add", req, &out); err != nil {
		return User{}, err
	}
	return out.Researcher, nil
}

func (c *Client) ListResearchers(ctx context.Context) ([]User, error) {
	var out ResearchersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/admin/researchers", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ListInvitations(ctx context.Context) ([]Invitation, error) {
	var out InvitationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/admin/invitations", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ResendInvitation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/admin/invitations/"+url.PathEscape(id)+"/resend", nil, nil)
}

func (c *Client) RevokeInvitation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/admin/invitations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) EnrollMFA(ctx context.Context) (MFAEnrollResponse, error) {
	var out MFAEnrollResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/admin/mfa/enroll", nil, &out)
	return out, err
}

func (c *Client) VerifyMFA(ctx context.Context, code string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/admin/mfa/verify", MFACodeRequest{Code: code}, nil)
}

func (c *Client) DisableMFA(ctx context.Context, code string) error {
	return c.doJSON(ctx, http.MethodDelete, "/auth/admin/mfa", MFACodeRequest{Code: code}, nil)
}
