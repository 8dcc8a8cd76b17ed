// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mcp-mailer-lite/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider delivers one fully assembled message to its single primary
// recipient (plus Cc/Bcc); batch fan-out is the caller's responsibility.
type Provider interface {
	// Send delivers an email message through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, msg *email.Message) error

	// Name returns the human-readable name of this provider.
	Name() string
}
