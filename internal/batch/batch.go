// Package batch orchestrates enhancement, composition, and delivery of
// one email per recipient, and formats the aggregate report.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shineum/mcp-mailer-lite/internal/compose"
	"github.com/shineum/mcp-mailer-lite/internal/email"
	"github.com/shineum/mcp-mailer-lite/internal/enhance"
	"github.com/shineum/mcp-mailer-lite/internal/provider"
)

// Config holds the immutable orchestrator configuration, injected once at
// construction.
type Config struct {
	Sender compose.Identity

	// CredentialsConfigured reports whether the delivery transport has
	// usable credentials. When false, SendBatch refuses to start.
	CredentialsConfigured bool

	// StagingRoot resolves relative attachment paths.
	StagingRoot string
}

// Request carries the inputs for one batch send.
type Request struct {
	Idea            string
	Tone            string
	Recipients      []string
	Names           []string
	Cc              []string
	Bcc             []string
	AttachmentPaths []string
}

// Orchestrator runs the per-recipient enhance, compose, send loop.
type Orchestrator struct {
	cfg      Config
	enhancer enhance.Enhancer
	prov     provider.Provider
	builder  *compose.Builder
}

// New creates an Orchestrator with the given configuration and collaborators.
func New(cfg Config, enhancer enhance.Enhancer, prov provider.Provider) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		enhancer: enhancer,
		prov:     prov,
		builder: &compose.Builder{
			Sender:      cfg.Sender,
			StagingRoot: cfg.StagingRoot,
		},
	}
}

// SendBatch processes recipients strictly in order, one enhancement call
// and one delivery per recipient. A failed delivery never stops later
// recipients. The return value is always a human-readable report; only
// pre-send validation short-circuits to a one-line error string.
func (o *Orchestrator) SendBatch(ctx context.Context, req Request) string {
	if len(req.Recipients) == 0 {
		return "Error: No valid recipients provided"
	}
	if strings.TrimSpace(req.Idea) == "" {
		return "Error: No main idea provided"
	}
	if !o.cfg.CredentialsConfigured {
		return "Error: Sender credentials not configured. Please set SMTP_EMAIL and SMTP_PASSWORD (or SES settings)"
	}

	names := padNames(req.Names, len(req.Recipients))

	outcomes := make([]email.DeliveryOutcome, 0, len(req.Recipients))
	var firstComposed email.ComposedEmail
	var firstBody string

	for i, recipient := range req.Recipients {
		res := o.enhancer.Enhance(ctx, enhance.Request{
			Idea:          req.Idea,
			Tone:          req.Tone,
			RecipientName: names[i],
		})

		msg, attached, missing := o.builder.Build(recipient, res.Email, req.Cc, req.Bcc, req.AttachmentPaths)

		if i == 0 {
			firstComposed = res.Email
			firstBody = msg.TextBody
		}

		outcome := o.deliver(ctx, msg, attached, missing)
		slog.Info("delivery attempted",
			"recipient", recipient,
			"status", outcome.Status,
			"enhancement", res.Source,
			"attached", len(attached),
			"missing", len(missing),
		)
		outcomes = append(outcomes, outcome)
	}

	return formatReport(req, names, firstComposed.Subject, firstBody, outcomes)
}

// deliver sends one message and converts the result into a DeliveryOutcome.
// Provider errors are captured as data, never propagated.
func (o *Orchestrator) deliver(ctx context.Context, msg *email.Message, attached, missing []string) email.DeliveryOutcome {
	if err := o.prov.Send(ctx, msg); err != nil {
		return email.DeliveryOutcome{
			Recipient:    msg.To,
			Status:       email.StatusError,
			Message:      fmt.Sprintf("Failed to send to %s: %v", msg.To, err),
			MissingFiles: missing,
		}
	}

	text := fmt.Sprintf("Email sent to %s", msg.To)
	if len(attached) > 0 {
		text += fmt.Sprintf(" (Attached: %s)", strings.Join(attached, ", "))
	}
	if len(missing) > 0 {
		text += fmt.Sprintf(" (Missing files: %s)", strings.Join(missing, ", "))
	}

	return email.DeliveryOutcome{
		Recipient:     msg.To,
		Status:        email.StatusSuccess,
		Message:       text,
		AttachedFiles: attached,
		MissingFiles:  missing,
	}
}

// padNames extends names with empty strings up to n entries. Pairing is
// positional only; there is no matching by address.
func padNames(names []string, n int) []string {
	padded := make([]string, n)
	copy(padded, names)
	return padded
}

// formatReport renders the aggregate batch report: representative content
// from the first recipient, exactly one status line per recipient, and
// de-duplicated attachment summaries.
func formatReport(req Request, names []string, subject, body string, outcomes []email.DeliveryOutcome) string {
	successCount := 0
	for _, out := range outcomes {
		if out.Status == email.StatusSuccess {
			successCount++
		}
	}
	failedCount := len(outcomes) - successCount

	var allAttached, allMissing []string
	for _, out := range outcomes {
		allAttached = appendUnique(allAttached, out.AttachedFiles)
		allMissing = appendUnique(allMissing, out.MissingFiles)
	}

	var b strings.Builder

	header := "✓ Email Sent Successfully"
	if successCount == 0 {
		header = "✗ Email Sending Failed"
	}
	b.WriteString(header + "\n\n")

	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Recipients: %d (%d sent, %d failed)\n\n", len(outcomes), successCount, failedCount)

	b.WriteString("--- Sample Email Content (first recipient) ---\n")
	b.WriteString(body + "\n")
	b.WriteString("--------------------\n\n")

	b.WriteString("Delivery Status:\n")
	for i, out := range outcomes {
		icon := "✓"
		if out.Status != email.StatusSuccess {
			icon = "✗"
		}
		nameInfo := ""
		if names[i] != "" {
			nameInfo = fmt.Sprintf(" (%s)", names[i])
		}
		fmt.Fprintf(&b, "\n%s %s%s: %s", icon, out.Recipient, nameInfo, out.Message)
	}

	if len(req.Cc) > 0 {
		fmt.Fprintf(&b, "\n\nCC: %s", strings.Join(req.Cc, ", "))
	}
	if len(req.Bcc) > 0 {
		fmt.Fprintf(&b, "\nBCC: %s", strings.Join(req.Bcc, ", "))
	}

	if len(allAttached) > 0 {
		fmt.Fprintf(&b, "\n\n✓ Attachments Sent: %s", strings.Join(allAttached, ", "))
	}
	if len(allMissing) > 0 {
		fmt.Fprintf(&b, "\n\n✗ Missing Files (not attached): %s", strings.Join(allMissing, ", "))
		b.WriteString("\n   Please check file paths. Use 'list_attachments' tool to browse available files.")
	}

	return b.String()
}

// appendUnique appends the items not already present, keeping first-seen order.
func appendUnique(dst []string, items []string) []string {
	for _, item := range items {
		seen := false
		for _, existing := range dst {
			if existing == item {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, item)
		}
	}
	return dst
}
