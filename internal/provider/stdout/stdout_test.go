package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shineum/mcp-mailer-lite/internal/email"
)

func TestSend_BasicMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Message{
		From:     "sender@example.com",
		FromName: "Alice Sender",
		To:       "alice@example.com",
		Subject:  "Monthly Report",
		TextBody: "Please find the report attached.",
	}

	if err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "From: Alice Sender <sender@example.com>") {
		t.Error("output missing From header")
	}
	if !strings.Contains(output, "To: alice@example.com") {
		t.Error("output missing To header")
	}
	if !strings.Contains(output, "Subject: Monthly Report") {
		t.Error("output missing Subject header")
	}
	if !strings.Contains(output, "Please find the report attached.") {
		t.Error("output missing body text")
	}
	if strings.Contains(output, "Attachments:") {
		t.Error("output should not contain Attachments line when there are none")
	}
	if !strings.HasPrefix(output, "========================================\n") {
		t.Error("output should start with separator line")
	}
	if !strings.HasSuffix(output, "========================================\n") {
		t.Error("output should end with separator line")
	}
}

func TestSend_CcAndBccLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Message{
		From:     "sender@example.com",
		To:       "alice@example.com",
		Cc:       []string{"carol@example.com"},
		Bcc:      []string{"dave@example.com"},
		Subject:  "With CC and BCC",
		TextBody: "Hello",
	}

	if err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Cc: carol@example.com") {
		t.Error("output missing Cc line")
	}
	if !strings.Contains(output, "Bcc (envelope only): dave@example.com") {
		t.Error("output missing Bcc line")
	}
}

func TestSend_AttachmentSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Message{
		From:     "sender@example.com",
		To:       "alice@example.com",
		Subject:  "With attachment",
		TextBody: "See attached.",
		Attachments: []email.Attachment{
			{Filename: "small.txt", Content: []byte("abc")},
			{Filename: "big.bin", Content: make([]byte, 2048)},
		},
	}

	if err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "small.txt (3 B)") {
		t.Errorf("output missing small attachment summary: %s", output)
	}
	if !strings.Contains(output, "big.bin (2.0 KB)") {
		t.Errorf("output missing large attachment summary: %s", output)
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	if got := New().Name(); got != "stdout" {
		t.Errorf("Name(): got %q, want %q", got, "stdout")
	}
}
