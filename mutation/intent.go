package mutation

import (
	"fmt"
	"strings"
)

// Kind is the write operation.
type Kind int

const (
	KindCreate Kind = iota + 1
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "create", "update", or "delete".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "create":
		return KindCreate, nil
	case "update":
		return KindUpdate, nil
	case "delete":
		return KindDelete, nil
	}
	return 0, &IntentError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", s)}
}

// Intent is one requested write. It is transient and never cached.
type Intent struct {
	Resource string
	Kind     Kind

	// ID addresses a single item; required for update and delete.
	ID string

	// Action addresses a sub-resource of the item, as in
	// PUT /api/users/{id}/role. Only valid for update.
	Action string

	Payload any

	// RequestID correlates the write with its logs and spans. The
	// Coordinator assigns one when empty.
	RequestID string
}

// Validate checks the intent's shape; it does not look at the payload.
func (i Intent) Validate() error {
	fail := func(field, reason string) error {
		return &IntentError{Resource: i.Resource, Field: field, Reason: reason}
	}
	switch {
	case i.Resource == "":
		return fail("resource", "empty resource name")
	case strings.ContainsAny(i.Resource, "/?#"):
		return fail("resource", "resource name must be a single path segment")
	case i.Kind < KindCreate || i.Kind > KindDelete:
		return fail("kind", "unknown kind "+i.Kind.String())
	case i.Kind == KindCreate && i.ID != "":
		return fail("id", "create must not name an id")
	case i.Kind != KindCreate && i.ID == "":
		return fail("id", i.Kind.String()+" requires an id")
	case i.Action != "" && i.Kind != KindUpdate:
		return fail("action", "only updates may name an action")
	case strings.ContainsAny(i.ID+i.Action, "/?#"):
		return fail("id", "id and action must be single path segments")
	}
	return nil
}
