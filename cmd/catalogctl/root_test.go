package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/querysync/catalog"
	"github.com/jonwraymond/querysync/config"
)

var testKey = []byte("catalogctl-test-key")

type fakeAPI struct {
	mu      sync.Mutex
	lessons []catalog.Lesson
	users   []catalog.User
	puts    []catalog.Lesson
	auth    []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lessons", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(f.lessons)
	})
	mux.HandleFunc("POST /api/lessons", func(w http.ResponseWriter, r *http.Request) {
		var l catalog.Lesson
		_ = json.NewDecoder(r.Body).Decode(&l)
		f.mu.Lock()
		defer f.mu.Unlock()
		l.ID = "new-1"
		f.lessons = append(f.lessons, l)
		_ = json.NewEncoder(w).Encode(l)
	})
	mux.HandleFunc("PUT /api/lessons/{id}", func(w http.ResponseWriter, r *http.Request) {
		var l catalog.Lesson
		_ = json.NewDecoder(r.Body).Decode(&l)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.puts = append(f.puts, l)
		_ = json.NewEncoder(w).Encode(l)
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.users)
	})
	return mux
}

func (f *fakeAPI) snapshot() (lessons, puts []catalog.Lesson, auth []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lessons, f.puts, f.auth
}

func newFakeAPI(t *testing.T) (*fakeAPI, string) {
	t.Helper()
	f := &fakeAPI{
		lessons: []catalog.Lesson{
			{ID: "1", Name: "Greetings", Number: 1, VocabularyCount: 4},
			{ID: "2", Name: "Numbers", Number: 2},
		},
		users: []catalog.User{{ID: "u1", Name: "Aiko", Email: "aiko@example.com", Role: "user"}},
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(testKey)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func execute(t *testing.T, vars map[string]string, args ...string) (string, error) {
	t.Helper()
	vars["QUERYSYNC_LOG_LEVEL"] = "error"
	load := func() (config.Config, error) { return config.LoadFrom(vars) }
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, &out, &errOut, load)
	return out.String(), err
}

func TestLessonsList(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url}, "lessons", "list")
	if err != nil {
		t.Fatalf("lessons list: %v", err)
	}
	for _, want := range []string{"Greetings", "Numbers", "page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLessonsCreate(t *testing.T) {
	f, url := newFakeAPI(t)
	out, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url},
		"lessons", "create", "--name", "Food", "--number", "3")
	if err != nil {
		t.Fatalf("lessons create: %v", err)
	}
	if !strings.Contains(out, `created lesson new-1 "Food"`) {
		t.Errorf("output = %q", out)
	}
	if lessons, _, _ := f.snapshot(); len(lessons) != 3 {
		t.Errorf("server has %d lessons, want 3", len(lessons))
	}
}

func TestLessonsCreate_Invalid(t *testing.T) {
	_, url := newFakeAPI(t)
	_, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url}, "lessons", "create", "--name", "Food")
	if !errors.Is(err, catalog.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestLessonsUpdate_OnlyChangesGivenFlags(t *testing.T) {
	f, url := newFakeAPI(t)
	if _, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url},
		"lessons", "update", "1", "--name", "Hello"); err != nil {
		t.Fatalf("lessons update: %v", err)
	}
	_, puts, _ := f.snapshot()
	if len(puts) != 1 {
		t.Fatalf("got %d PUTs, want 1", len(puts))
	}
	if got := puts[0]; got.Name != "Hello" || got.Number != 1 {
		t.Errorf("PUT body = %+v", got)
	}

	if _, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url},
		"lessons", "update", "9", "--name", "x"); err == nil {
		t.Error("update of a missing lesson succeeded")
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		args    []string
		denied  bool
		contain string
	}{
		{"signed out", "", []string{"lessons", "list"}, true, "redirect /login"},
		{"user lessons", "user", []string{"lessons", "list"}, false, "Greetings"},
		{"user admin screen", "user", []string{"users", "list"}, true, "redirect /lessons"},
		{"admin users", "admin", []string{"users", "list"}, false, "aiko@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := newFakeAPI(t)
			vars := map[string]string{
				"QUERYSYNC_BASE_URL":  url,
				"QUERYSYNC_TOKEN_KEY": string(testKey),
			}
			if tt.token != "" {
				vars["QUERYSYNC_API_TOKEN"] = token(t, tt.token)
			}
			out, err := execute(t, vars, tt.args...)
			if tt.denied {
				if !errors.Is(err, errDenied) || !strings.Contains(err.Error(), tt.contain) {
					t.Fatalf("error = %v, want denial containing %q", err, tt.contain)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, tt.contain) {
				t.Errorf("output missing %q:\n%s", tt.contain, out)
			}
		})
	}
}

func TestTokenFlagIsSent(t *testing.T) {
	f, url := newFakeAPI(t)
	if _, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url, "QUERYSYNC_API_TOKEN": "env-token"},
		"--token", "flag-token", "lessons", "list"); err != nil {
		t.Fatal(err)
	}
	if _, _, auth := f.snapshot(); len(auth) != 1 || auth[0] != "Bearer flag-token" {
		t.Errorf("Authorization = %v", auth)
	}
}

func TestScreens(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := execute(t, map[string]string{
		"QUERYSYNC_BASE_URL":  url,
		"QUERYSYNC_TOKEN_KEY": string(testKey),
		"QUERYSYNC_API_TOKEN": token(t, "user"),
	}, "screens")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(catalog.Screens()) {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasSuffix(lines[0], "allowed") || !strings.HasSuffix(lines[2], "redirect /lessons") {
		t.Errorf("output:\n%s", out)
	}
}

func TestHealth(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": url}, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, "overall: healthy") {
		t.Errorf("output:\n%s", out)
	}
}

func TestHealth_JSONWithHealthPath(t *testing.T) {
	_, url := newFakeAPI(t)
	out, err := execute(t, map[string]string{
		"QUERYSYNC_BASE_URL":    url,
		"QUERYSYNC_HEALTH_PATH": "/missing",
	}, "health", "--json")
	if err == nil || !errors.Is(err, errUnhealthy) {
		t.Fatalf("health --json error = %v, want errUnhealthy", err)
	}
	var report struct {
		Status string
		Checks map[string]struct{ Status string }
	}
	if jerr := json.Unmarshal([]byte(out), &report); jerr != nil {
		t.Fatalf("output is not JSON: %v\n%s", jerr, out)
	}
	if report.Status != "unhealthy" || report.Checks["transport"].Status != "unhealthy" || report.Checks["cache"].Status != "healthy" {
		t.Errorf("report = %+v", report)
	}
}

func TestBadConfig(t *testing.T) {
	_, err := execute(t, map[string]string{"QUERYSYNC_BASE_URL": "ftp://example.com"}, "lessons", "list")
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("error = %v, want config.ErrInvalid", err)
	}
}
