// Package enhance expands a short idea into a structured email using a
// remote text-generation model, with a deterministic local fallback.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shineum/mcp-mailer-lite/internal/email"
)

// subjectIdeaLimit is the number of idea characters carried into the
// fallback subject line.
const subjectIdeaLimit = 50

// Source identifies which path produced an enhancement result.
type Source string

const (
	// SourceModel means the remote model produced the email.
	SourceModel Source = "model"

	// SourceFallback means the local template produced the email because
	// the remote call failed or returned unusable output.
	SourceFallback Source = "fallback"
)

// Request carries the inputs for one enhancement call.
type Request struct {
	Idea          string
	Tone          string
	RecipientName string
}

// Result is the outcome of an enhancement call. The Email fields are
// always non-empty; Source tells callers (and tests) which path ran.
type Result struct {
	Email  email.ComposedEmail
	Source Source
}

// Enhancer turns a short idea into a complete structured email.
// Implementations never fail: any error path must degrade to a fallback
// result rather than surfacing to the caller.
type Enhancer interface {
	Enhance(ctx context.Context, req Request) Result
}

// TextGenerator is the remote text-generation dependency of the
// ModelEnhancer. Implemented by Client and by test fakes.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelEnhancer enhances emails through a TextGenerator, expecting the
// model to answer with a JSON object holding the four email fields.
type ModelEnhancer struct {
	gen TextGenerator
}

// NewModelEnhancer creates a ModelEnhancer backed by the given generator.
// A nil generator is allowed; every call then takes the fallback path.
func NewModelEnhancer(gen TextGenerator) *ModelEnhancer {
	return &ModelEnhancer{gen: gen}
}

// Enhance performs exactly one model call and parses its output. On any
// failure it returns the deterministic fallback; it never retries.
func (e *ModelEnhancer) Enhance(ctx context.Context, req Request) Result {
	if e.gen == nil {
		slog.Debug("text generator not configured, using fallback template")
		return Result{Email: Fallback(req.Idea), Source: SourceFallback}
	}

	text, err := e.gen.Generate(ctx, buildPrompt(req))
	if err != nil {
		slog.Warn("enhancement call failed, using fallback template", "error", err)
		return Result{Email: Fallback(req.Idea), Source: SourceFallback}
	}

	composed, err := parseComposed(text)
	if err != nil {
		slog.Warn("unusable model output, using fallback template", "error", err)
		return Result{Email: Fallback(req.Idea), Source: SourceFallback}
	}

	return Result{Email: composed, Source: SourceModel}
}

// Fallback builds the deterministic ComposedEmail used whenever the model
// path fails. It relies only on local string formatting and never errors.
func Fallback(idea string) email.ComposedEmail {
	return email.ComposedEmail{
		Subject:  "Update: " + truncate(idea, subjectIdeaLimit),
		Greeting: "Hello,",
		Body: fmt.Sprintf("I wanted to reach out regarding: %s\n\n"+
			"Please let me know if you have any questions.", idea),
		Closing: "Best regards",
	}
}

// buildPrompt constructs the instruction sent to the model, embedding the
// idea, the tone, and an optional personalized-salutation directive.
func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are a professional email writing assistant. Given a short main idea, " +
		"create a polished, concise, and natural-sounding email.\n\n")
	fmt.Fprintf(&b, "Main idea: %s\n", req.Idea)
	fmt.Fprintf(&b, "Tone: %s", req.Tone)
	if req.RecipientName != "" {
		fmt.Fprintf(&b, "\nRecipient name: %s\n", req.RecipientName)
		fmt.Fprintf(&b, "Use a personalized greeting with their name (e.g., 'Dear %s,' or 'Hi %s,')",
			req.RecipientName, req.RecipientName)
	}
	b.WriteString("\n\nGenerate a complete professional email with:\n" +
		"1. A clear, specific subject line (no \"Subject:\" prefix)\n" +
		"2. Appropriate greeting\n" +
		"3. Well-structured body (2-4 sentences, clear and concise)\n" +
		"4. Professional closing\n\n" +
		"Return ONLY a valid JSON object with these exact keys: " +
		"\"subject\", \"greeting\", \"body\", \"closing\"\n\n" +
		"Example format:\n" +
		`{"subject": "Project Update - Q4 Results", "greeting": "Hello,", ` +
		`"body": "I wanted to share some exciting news about our Q4 performance. ` +
		`Our team exceeded targets by 15% and secured three new major clients. ` +
		`The detailed report is attached for your review.", "closing": "Best regards"}` +
		"\n\nNow generate the email:")

	return b.String()
}

// parseComposed extracts a ComposedEmail from free-form model output.
// It strips Markdown code fences, tolerates surrounding prose, and
// requires all four keys to be present and non-empty.
func parseComposed(text string) (email.ComposedEmail, error) {
	stripped := stripFences(strings.TrimSpace(text))

	var composed email.ComposedEmail
	if err := json.Unmarshal([]byte(stripped), &composed); err != nil {
		// The model sometimes wraps the object in prose; retry on the
		// outermost brace pair.
		obj, ok := extractObject(stripped)
		if !ok {
			return email.ComposedEmail{}, fmt.Errorf("no JSON object in model output: %w", err)
		}
		if err := json.Unmarshal([]byte(obj), &composed); err != nil {
			return email.ComposedEmail{}, fmt.Errorf("failed to parse model output: %w", err)
		}
	}

	if composed.Subject == "" || composed.Greeting == "" ||
		composed.Body == "" || composed.Closing == "" {
		return email.ComposedEmail{}, fmt.Errorf("model output missing required keys")
	}

	return composed, nil
}

// stripFences removes a Markdown code-fence wrapper (``` or ```json) from
// the model output, if present.
func stripFences(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return text
}

// extractObject returns the substring spanning the outermost brace pair.
func extractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
