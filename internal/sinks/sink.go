// Package sinks holds the HTTP clients for the external endpoints that
// receive submitted leads. Each sink is an independent best-effort delivery
// target; the submitter decides how their outcomes combine.
package sinks

import (
	"context"

	"github.com/brighthome/leadquiz/internal/leads"
)

// Sink delivers a lead payload to one external endpoint.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, payload *leads.Payload) error
}
