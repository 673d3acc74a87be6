package portalsdk

// Redirect targets.
const (
	ResearcherLoginPath = "/researcher-login"
	AdminLoginPath      = "/admin-login"
	HomePath            = "/"
)

// Guard names what a protected view requires.
type Guard int

const (
	GuardAuthenticated Guard = iota
	GuardAdmin
	GuardResearcher
)

type DecisionKind int

const (
	Pending DecisionKind = iota
	Allowed
	Redirect
)

// Decision is the outcome of checking a guard. Target is set only for
// Redirect.
type Decision struct {
	Kind   DecisionKind
	Target string
}

func redirect(to string) Decision { return Decision{Kind: Redirect, Target: to} }

// Allow decides what a view protected by g should do in state s.
func Allow(g Guard, s SessionState) Decision {
	if s.Loading {
		return Decision{Kind: Pending}
	}

	switch g {
	case GuardAdmin:
		if !s.Authenticated {
			return redirect(AdminLoginPath)
		}
		if s.Role() != RoleAdmin {
			return redirect(HomePath)
		}
	case GuardResearcher:
		if !s.Authenticated {
			return redirect(ResearcherLoginPath)
		}
		if s.Role() != RoleResearcher {
			return redirect(HomePath)
		}
	default:
		if !s.Authenticated {
			return redirect(ResearcherLoginPath)
		}
	}
	return Decision{Kind: Allowed}
}

// Protect calls render only when g allows the current state, and returns
// the decision either way.
func Protect(g Guard, s *Session, render func(SessionState)) Decision {
	st := s.State()
	d := Allow(g, st)
	if d.Kind == Allowed {
		render(st)
	}
	return d
}
