package auth

// Redirect targets used by the visibility gate.
const (
	LoginPath   = "/login"
	LessonsPath = "/lessons"
)

// Decision is the outcome of CanView. When Allowed is false, Redirect
// names where the user is sent instead.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Allow is the decision to render the screen.
func Allow() Decision { return Decision{Allowed: true} }

// RedirectTo is the decision to send the user to target.
func RedirectTo(target string) Decision { return Decision{Redirect: target} }

func (d Decision) String() string {
	if d.Allowed {
		return "allowed"
	}
	return "redirect " + d.Redirect
}

// CanView decides whether id may see a screen. A signed-out user goes to
// the login page; a non-admin on an admin screen goes back to the lessons.
func CanView(id *Identity, requiresAdmin bool) Decision {
	switch {
	case id == nil:
		return RedirectTo(LoginPath)
	case requiresAdmin && !id.IsAdmin():
		return RedirectTo(LessonsPath)
	default:
		return Allow()
	}
}
