package portalsdk

import (
	"fmt"
	"time"
)

// Role is a closed set. The zero value is not a role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleResearcher Role = "researcher"
)

// ParseRole accepts exactly the wire names of the known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleResearcher:
		return Role(s), nil
	}
	return "", fmt.Errorf("portalsdk: unknown role %q", s)
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// DateLayout is how invitation dates are rendered on the wire.
const DateLayout = "2006-01-02"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
}

// User is an account as returned by the API.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           Role       `json:"role"`
	Faculty        string     `json:"faculty,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	Title          string     `json:"title,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	MFAEnabled     bool       `json:"mfaEnabled"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Invitation is an outstanding researcher invitation. Dates use DateLayout.
type Invitation struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Status  string `json:"status"` // pending or expired
	Created string `json:"created"`
	Expires string `json:"expires"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

// LoginResponse carries the access token. The refresh credential travels
// only in the refresh_token cookie.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type UserResponse struct {
	User User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type AddResearcherRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Faculty string `json:"faculty"`
	Bio     string `json:"bio,omitempty"`
	Title   string `json:"title,omitempty"`
}

type ResearcherResponse struct {
	Researcher User `json:"researcher"`
}

type ResearchersResponse struct {
	Data []User `json:"data"`
}

type InvitationsResponse struct {
	Data []Invitation `json:"data"`
}

type MFAEnrollResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

type MFACodeRequest struct {
	Code string `json:"code"`
}

// ProfileForm is submitted as multipart/form-data to complete an
// invitation. Picture is optional.
type ProfileForm struct {
	Name     string
	Password string
	Faculty  string
	Bio      string
	Title    string

	Picture     []byte
	PictureName string
}

// JWK is an Ed25519 verification key.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
}

type JWKSResponse struct {
	Keys []JWK `json:"keys"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
