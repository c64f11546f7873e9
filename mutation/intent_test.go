package mutation

import (
	"errors"
	"testing"
)

func TestIntent_Validate(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		field  string
	}{
		{"create", Intent{Resource: "lessons", Kind: KindCreate}, ""},
		{"update", Intent{Resource: "lessons", Kind: KindUpdate, ID: "1"}, ""},
		{"update action", Intent{Resource: "users", Kind: KindUpdate, ID: "1", Action: "role"}, ""},
		{"delete", Intent{Resource: "lessons", Kind: KindDelete, ID: "1"}, ""},
		{"no resource", Intent{Kind: KindCreate}, "resource"},
		{"nested resource", Intent{Resource: "lessons/1", Kind: KindCreate}, "resource"},
		{"no kind", Intent{Resource: "lessons"}, "kind"},
		{"create with id", Intent{Resource: "lessons", Kind: KindCreate, ID: "1"}, "id"},
		{"update without id", Intent{Resource: "lessons", Kind: KindUpdate}, "id"},
		{"delete without id", Intent{Resource: "lessons", Kind: KindDelete}, "id"},
		{"delete with action", Intent{Resource: "users", Kind: KindDelete, ID: "1", Action: "role"}, "action"},
		{"id with slash", Intent{Resource: "lessons", Kind: KindDelete, ID: "1/2"}, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var ie *IntentError
			if !errors.As(err, &ie) || ie.Field != tt.field || !errors.Is(err, ErrInvalidIntent) {
				t.Fatalf("Validate() error = %v, want %s error", err, tt.field)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindCreate, KindUpdate, KindDelete} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("upsert"); !errors.Is(err, ErrInvalidIntent) {
		t.Errorf("ParseKind(upsert) error = %v", err)
	}
}

func TestDraft(t *testing.T) {
	type lesson struct {
		Name   string
		Number int
	}
	var d Draft[lesson]

	if _, err := d.Submit("lessons"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("Submit() before Begin = %v", err)
	}
	if d.Edit(func(*lesson) {}) {
		t.Fatal("Edit() without a draft should report false")
	}

	d.Begin("4", lesson{Name: "Greetings", Number: 1})
	d.Edit(func(l *lesson) { l.Name = "Hellos" })
	if v, ok := d.Value(); !ok || v.Name != "Hellos" || d.ID() != "4" {
		t.Fatalf("Value() = %+v, %v", v, ok)
	}

	in, err := d.Submit("lessons")
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindUpdate || in.ID != "4" || in.Payload.(lesson).Name != "Hellos" {
		t.Errorf("intent = %+v", in)
	}
	if d.Active() {
		t.Error("draft still active after Submit")
	}

	d.Begin("5", lesson{})
	d.Discard()
	if _, ok := d.Value(); ok {
		t.Error("draft still active after Discard")
	}
}
