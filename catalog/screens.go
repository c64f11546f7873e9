package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/querysync/auth"
)

// Screen is a page of the catalog and whether only admins may see it.
type Screen struct {
	Path          string
	RequiresAdmin bool
}

var screens = []Screen{
	{"/lessons", false},
	{"/tutorials", false},
	{"/admin", true},
	{"/admin/lessons", true},
	{"/admin/add-lesson", true},
	{"/admin/add-vocabulary", true},
	{"/admin/manage-users", true},
	{"/admin/lesson-management", true},
	{"/admin/vocabulary-management", true},
}

// Screens lists the gated screens.
func Screens() []Screen { return slices.Clone(screens) }

// LookupScreen finds a screen by path, with or without the leading slash.
func LookupScreen(path string) (Screen, bool) {
	path = "/" + strings.Trim(path, "/")
	i := slices.IndexFunc(screens, func(s Screen) bool { return s.Path == path })
	if i < 0 {
		return Screen{}, false
	}
	return screens[i], true
}

// Gate applies the visibility gate for screen.
func Gate(id *auth.Identity, screen string) (auth.Decision, error) {
	s, ok := LookupScreen(screen)
	if !ok {
		return auth.Decision{}, fmt.Errorf("%w: %q", ErrUnknownScreen, screen)
	}
	return auth.CanView(id, s.RequiresAdmin), nil
}
