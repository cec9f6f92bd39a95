// Package quiz drives the lead-capture flow as an explicit state machine: a
// linear step sequence with a homeowner gate at the front, one collected
// field per step, and a terminal step reached only after submission succeeds.
// The machine is independent of any rendering or transport layer.
package quiz

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brighthome/leadquiz/internal/leads"
)

// Step identifies a position in the quiz flow.
type Step int

const (
	StepHomeowner Step = iota
	StepName
	StepZip
	StepEmail
	StepPhone
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepHomeowner:
		return "homeowner"
	case StepName:
		return "name"
	case StepZip:
		return "zip"
	case StepEmail:
		return "email"
	case StepPhone:
		return "phone"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

var (
	zipPattern = regexp.MustCompile(`^\d{5}$`)
	// Permissive local@domain.tld check; the receiver re-validates anyway.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// transition describes one row of the step table: how to validate the input
// for a step, how to record it, and where the flow goes next.
type transition struct {
	field    string
	validate func(input string) error
	apply    func(rec *leads.UserRecord, input string)
	next     Step
}

var transitions = map[Step]transition{
	StepHomeowner: {
		field: "homeowner",
		validate: func(input string) error {
			switch strings.ToLower(strings.TrimSpace(input)) {
			case leads.HomeownerYes, leads.HomeownerNo:
				return nil
			}
			return &ValidationError{Field: "homeowner", Reason: "answer must be yes or no"}
		},
		apply: func(rec *leads.UserRecord, input string) {
			rec.Homeowner = strings.ToLower(strings.TrimSpace(input))
		},
		next: StepName,
	},
	StepName: {
		field: "name",
		validate: func(input string) error {
			if len(strings.TrimSpace(input)) < 2 {
				return &ValidationError{Field: "name", Reason: "must be at least 2 characters"}
			}
			return nil
		},
		apply: func(rec *leads.UserRecord, input string) {
			rec.Name = strings.TrimSpace(input)
		},
		next: StepZip,
	},
	StepZip: {
		field: "zip",
		validate: func(input string) error {
			if !zipPattern.MatchString(strings.TrimSpace(input)) {
				return &ValidationError{Field: "zip", Reason: "must be exactly 5 digits"}
			}
			return nil
		},
		apply: func(rec *leads.UserRecord, input string) {
			rec.Zip = strings.TrimSpace(input)
		},
		next: StepEmail,
	},
	StepEmail: {
		field: "email",
		validate: func(input string) error {
			if !emailPattern.MatchString(strings.TrimSpace(input)) {
				return &ValidationError{Field: "email", Reason: "must look like name@domain.tld"}
			}
			return nil
		},
		apply: func(rec *leads.UserRecord, input string) {
			rec.Email = leads.NormalizeEmail(input)
		},
		next: StepPhone,
	},
	StepPhone: {
		field: "phone",
		validate: func(input string) error {
			n := digitCount(input)
			if n < 10 || n > 11 {
				return &ValidationError{Field: "phone", Reason: "must contain 10 or 11 digits"}
			}
			return nil
		},
		apply: func(rec *leads.UserRecord, input string) {
			rec.Phone = strings.TrimSpace(input)
		},
		next: StepDone,
	},
}

// Advance validates the input for the session's current step, records the
// field, and moves the session to the next step. Validation failures leave
// the session untouched. Answering the gate with "no" records the answer and
// halts the session permanently.
func Advance(sess *Session, input string) error {
	if sess == nil {
		return fmt.Errorf("quiz: nil session")
	}
	if sess.Halted {
		return ErrSessionHalted
	}
	if sess.Step == StepDone {
		return ErrQuizComplete
	}

	tr, ok := transitions[sess.Step]
	if !ok {
		return fmt.Errorf("quiz: no transition for step %s", sess.Step)
	}
	if err := tr.validate(input); err != nil {
		return err
	}

	tr.apply(&sess.Record, input)

	if sess.Step == StepHomeowner && sess.Record.Homeowner == leads.HomeownerNo {
		sess.Halted = true
		return ErrNotHomeowner
	}

	sess.Step = tr.next
	return nil
}

// Title returns the prompt for the session's current step. Once the visitor's
// name is captured, later prompts are personalized with it.
func Title(sess *Session) string {
	first := ""
	if sess.Record.Name != "" {
		first, _ = leads.SplitName(sess.Record.Name)
	}

	switch sess.Step {
	case StepHomeowner:
		return "Do you own your home?"
	case StepName:
		return "Great! What's your name?"
	case StepZip:
		if first != "" {
			return fmt.Sprintf("%s, what's your zip code?", first)
		}
		return "What's your zip code?"
	case StepEmail:
		if first != "" {
			return fmt.Sprintf("%s, what's your email address?", first)
		}
		return "What's your email address?"
	case StepPhone:
		if first != "" {
			return fmt.Sprintf("Last step, %s! What's your phone number?", first)
		}
		return "Last step! What's your phone number?"
	case StepDone:
		if first != "" {
			return fmt.Sprintf("Thanks, %s! We'll be in touch shortly.", first)
		}
		return "Thanks! We'll be in touch shortly."
	default:
		return ""
	}
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
