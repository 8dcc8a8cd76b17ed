package ses

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/mcp-mailer-lite/internal/email"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params, optFns...)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

func testMessage() *email.Message {
	return &email.Message{
		From:     "sender@example.com",
		FromName: "Alice Sender",
		To:       "to@example.com",
		Cc:       []string{"cc@example.com"},
		Bcc:      []string{"bcc@example.com"},
		Subject:  "Test Subject",
		TextBody: "Hello,\n\nBody text.\n\nBest regards,\nAlice Sender",
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithClient("sender@example.com", "", &mockSESClient{})
	if got := p.Name(); got != "ses" {
		t.Errorf("Name(): got %q, want %q", got, "ses")
	}
}

func TestSend_SimpleMessage(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", "Alice Sender", mock)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}

	input := mock.lastInput
	if input.Content.Simple == nil {
		t.Fatal("expected simple email content, got nil")
	}
	if got := *input.FromEmailAddress; got != "Alice Sender <sender@example.com>" {
		t.Errorf("FromEmailAddress: got %q", got)
	}
	if got := *input.Content.Simple.Subject.Data; got != "Test Subject" {
		t.Errorf("Subject: got %q, want %q", got, "Test Subject")
	}
	if !strings.Contains(*input.Content.Simple.Body.Text.Data, "Body text.") {
		t.Errorf("TextBody: got %q", *input.Content.Simple.Body.Text.Data)
	}
}

func TestSend_EnvelopeRecipients(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", "", mock)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dest := mock.lastInput.Destination
	if len(dest.ToAddresses) != 1 || dest.ToAddresses[0] != "to@example.com" {
		t.Errorf("ToAddresses: got %v", dest.ToAddresses)
	}
	if len(dest.CcAddresses) != 1 || dest.CcAddresses[0] != "cc@example.com" {
		t.Errorf("CcAddresses: got %v", dest.CcAddresses)
	}
	if len(dest.BccAddresses) != 1 || dest.BccAddresses[0] != "bcc@example.com" {
		t.Errorf("BccAddresses: got %v", dest.BccAddresses)
	}
}

func TestSend_RawMessageWithAttachment(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", "Alice Sender", mock)

	msg := testMessage()
	msg.MessageID = "fixed-id@example.com"
	msg.Attachments = []email.Attachment{{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Content:     []byte("attachment body"),
	}}

	if err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := mock.lastInput
	if input.Content.Raw == nil {
		t.Fatal("expected raw email content, got nil")
	}

	raw := string(input.Content.Raw.Data)
	if !strings.Contains(raw, "From: Alice Sender <sender@example.com>") {
		t.Error("raw message missing From header")
	}
	if !strings.Contains(raw, "To: to@example.com") {
		t.Error("raw message missing To header")
	}
	if !strings.Contains(raw, "Cc: cc@example.com") {
		t.Error("raw message missing Cc header")
	}
	if !strings.Contains(raw, "Message-ID: <fixed-id@example.com>") {
		t.Error("raw message missing Message-ID header")
	}
	if !strings.Contains(raw, "multipart/mixed") {
		t.Error("raw message missing multipart content type")
	}
	if !strings.Contains(raw, "filename=notes.txt") {
		t.Error("raw message missing attachment disposition filename")
	}

	// Bcc goes into the Destination envelope, never the headers.
	if strings.Contains(raw, "bcc@example.com") {
		t.Error("Bcc address leaked into raw message headers")
	}
	if len(input.Destination.BccAddresses) != 1 {
		t.Errorf("BccAddresses: got %v, want one entry", input.Destination.BccAddresses)
	}
}

func TestSend_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{
		sendFn: func(_ context.Context, _ *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	p := NewWithClient("sender@example.com", "", mock)

	// Cancel quickly so backoff sleeps do not stall the test.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Send(ctx, testMessage())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if mock.callCount < 1 {
		t.Errorf("call count: got %d, want at least 1", mock.callCount)
	}
}

func TestSend_SucceedsAfterTransientError(t *testing.T) {
	t.Parallel()

	calls := 0
	mock := &mockSESClient{}
	mock.sendFn = func(_ context.Context, _ *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return &sesv2.SendEmailOutput{MessageId: aws.String("ok")}, nil
	}
	p := NewWithClient("sender@example.com", "", mock)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestEncodeBase64WithLineBreaks(t *testing.T) {
	t.Parallel()

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}

	encoded := encodeBase64WithLineBreaks(data)
	for _, line := range strings.Split(encoded, "\r\n") {
		if len(line) > 76 {
			t.Errorf("line exceeds 76 chars: %d", len(line))
		}
	}
}
