package leads

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Answer values for the homeowner gate question.
const (
	HomeownerYes = "yes"
	HomeownerNo  = "no"
)

// UserRecord is the in-progress lead collected step by step by the quiz.
// It is mutated field-by-field as the visitor advances and consumed exactly
// once when the final step submits.
type UserRecord struct {
	Homeowner string `json:"homeowner"`
	Name      string `json:"name"`
	Zip       string `json:"zip"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address,omitempty"`
}

// Payload is the wire record sent to both sinks.
type Payload struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Zip         string `json:"zip"`
	Address     string `json:"address,omitempty"`
	QuizAnswers string `json:"quiz_answers"`
	PageURL     string `json:"page_url"`
	Timestamp   string `json:"timestamp"`
}

// quizAnswers is the JSON blob embedded as a string in Payload.QuizAnswers.
type quizAnswers struct {
	Homeowner string `json:"homeowner"`
	Variant   string `json:"variant"`
}

// BuildPayload validates the record and assembles the normalized wire payload.
// Every required field must be present and non-blank before any normalization
// or network activity happens; the first missing field aborts the build.
func BuildPayload(rec *UserRecord, variant, pageURL string, now time.Time) (*Payload, error) {
	if rec == nil {
		return nil, &MissingFieldError{Field: "record"}
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"homeowner", rec.Homeowner},
		{"name", rec.Name},
		{"zip", rec.Zip},
		{"email", rec.Email},
		{"phone", rec.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, &MissingFieldError{Field: f.name}
		}
	}

	answers, err := json.Marshal(quizAnswers{
		Homeowner: strings.TrimSpace(rec.Homeowner),
		Variant:   variant,
	})
	if err != nil {
		return nil, fmt.Errorf("leads: encode quiz answers: %w", err)
	}

	first, last := SplitName(rec.Name)
	return &Payload{
		FirstName:   first,
		LastName:    last,
		Phone:       NormalizePhone(rec.Phone),
		Email:       NormalizeEmail(rec.Email),
		Zip:         strings.TrimSpace(rec.Zip),
		Address:     strings.TrimSpace(rec.Address),
		QuizAnswers: string(answers),
		PageURL:     strings.TrimSpace(pageURL),
		Timestamp:   now.UTC().Format(time.RFC3339),
	}, nil
}

// Lead is a captured lead as persisted by the receiver.
type Lead struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Zip         string    `json:"zip"`
	QuizAnswers string    `json:"quiz_answers"`
	PageURL     string    `json:"page_url"`
	CreatedAt   time.Time `json:"created_at"`
}
