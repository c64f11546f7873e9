package catalog

import (
	"fmt"
	"strings"
)

// Resource names, as they appear under /api.
const (
	Lessons      = "lessons"
	Vocabularies = "vocabularies"
	Users        = "users"
)

// Lesson is one numbered lesson and how many words it holds.
type Lesson struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Number          int    `json:"lessonNumber"`
	VocabularyCount int    `json:"vocabularyCount,omitempty"`
}

// Validate checks the fields an admin fills in.
func (l Lesson) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return &InputError{Field: "name", Reason: "lesson name is required"}
	}
	if l.Number < 1 {
		return &InputError{Field: "lessonNumber", Reason: "lesson number must be at least 1"}
	}
	return nil
}

// Vocabulary is one word taught by a lesson.
type Vocabulary struct {
	ID            string `json:"id,omitempty"`
	Word          string `json:"word"`
	Pronunciation string `json:"pronunciation"`
	Meaning       string `json:"meaning"`
	WhenToSay     string `json:"whenToSay"`
	LessonID      string `json:"lessonId"`
	AdminEmail    string `json:"adminEmail,omitempty"`
}

// Validate requires every field an admin fills in.
func (v Vocabulary) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"word", v.Word},
		{"pronunciation", v.Pronunciation},
		{"meaning", v.Meaning},
		{"whenToSay", v.WhenToSay},
		{"lessonId", v.LessonID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &InputError{Field: f.name, Reason: fmt.Sprintf("%s is required", f.name)}
		}
	}
	return nil
}

// User is a catalog account and its role.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role"`
}

// LessonName returns the name of lesson id, or "Unknown".
func LessonName(lessons []Lesson, id string) string {
	for _, l := range lessons {
		if l.ID == id {
			return l.Name
		}
	}
	return "Unknown"
}
