// Package email defines the core email data model shared by the enhancer,
// the message builder, and the delivery providers.
package email

// ComposedEmail is the structured result of expanding a short idea into a
// full email. All four fields are non-empty once produced; callers that
// fail to obtain one from the model must substitute a fallback instead of
// propagating an error.
type ComposedEmail struct {
	Subject  string `json:"subject"`
	Greeting string `json:"greeting"`
	Body     string `json:"body"`
	Closing  string `json:"closing"`
}

// Message is a fully assembled outgoing email, addressed to exactly one
// primary recipient. Batch fan-out builds one Message per recipient so no
// primary recipient can see the others.
type Message struct {
	From        string
	FromName    string
	To          string
	Cc          []string
	Bcc         []string
	Subject     string
	TextBody    string
	Attachments []Attachment
	MessageID   string
}

// Attachment represents a file attached to an outgoing message, fully
// loaded into memory at build time.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Status classifies the result of one delivery attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DeliveryOutcome records the result of one send attempt to one primary
// recipient. Outcomes are never mutated or retried after creation.
type DeliveryOutcome struct {
	Recipient     string
	Status        Status
	Message       string
	AttachedFiles []string
	MissingFiles  []string
}
