package core

// Verdict is the outcome of an access gate.
type Verdict int

const (
	// Defer means the session is still loading; render a neutral placeholder.
	Defer Verdict = iota
	// Permit means the protected view may be mounted.
	Permit
	// Redirect means navigate to Decision.Location instead.
	Redirect
)

func (v Verdict) String() string {
	switch v {
	case Defer:
		return "defer"
	case Permit:
		return "permit"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Entry points used by the gates.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decision is what a gate tells the rendering layer to do.
type Decision struct {
	Verdict  Verdict
	Location string
}

// RequiresAuthenticated permits any logged-in user and sends guests to the login page.
func RequiresAuthenticated(s State) Decision {
	if s.Loading {
		return Decision{Verdict: Defer}
	}
	if s.User == nil {
		return Decision{Verdict: Redirect, Location: LoginPath}
	}
	return Decision{Verdict: Permit}
}

// RequiresAdmin permits admins only. Everyone else, logged in or not, goes home.
func RequiresAdmin(s State) Decision {
	if s.Loading {
		return Decision{Verdict: Defer}
	}
	if !s.IsAdmin() {
		return Decision{Verdict: Redirect, Location: HomePath}
	}
	return Decision{Verdict: Permit}
}
