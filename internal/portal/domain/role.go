package domain

import (
	"errors"
	"fmt"
)

// Role is the closed set of account kinds. The zero value is not a role.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleResearcher
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole accepts exactly "admin" or "researcher".
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "researcher":
		return RoleResearcher, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownRole, s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleResearcher:
		return "researcher"
	}
	return "unknown"
}

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleResearcher }

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
