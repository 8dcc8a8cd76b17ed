// Package compose assembles outgoing messages from a structured email,
// the sender identity, and optional file attachments.
package compose

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/shineum/mcp-mailer-lite/internal/email"
)

// fallbackContentType is used when the extension is unknown.
const fallbackContentType = "application/octet-stream"

// encodingExtensions are suffixes that denote a content encoding rather
// than a content type (gzip, compress, bzip2, xz, brotli). Files carrying
// one are attached as generic binary data.
var encodingExtensions = map[string]bool{
	".gz":  true,
	".Z":   true,
	".bz2": true,
	".xz":  true,
	".br":  true,
}

// Identity is the sender of outgoing messages.
type Identity struct {
	Address string
	Name    string
}

// Builder assembles messages for one sender identity. Relative attachment
// paths are resolved against StagingRoot.
type Builder struct {
	Sender      Identity
	StagingRoot string
}

// Build assembles one Message for a single primary recipient. Attachment
// files that do not exist at build time are reported in missing (by base
// name) and skipped; they never abort the build. Existing files are read
// fully into memory.
func (b *Builder) Build(to string, composed email.ComposedEmail, cc, bcc []string, attachmentPaths []string) (*email.Message, []string, []string) {
	msg := &email.Message{
		From:      b.Sender.Address,
		FromName:  b.Sender.Name,
		To:        to,
		Cc:        cc,
		Bcc:       bcc,
		Subject:   composed.Subject,
		TextBody:  FormatBody(composed, b.Sender.Name),
		MessageID: newMessageID(b.Sender.Address),
	}

	var attached, missing []string
	for _, path := range attachmentPaths {
		resolved := b.resolve(path)

		info, err := os.Stat(resolved)
		if err != nil || info.IsDir() {
			missing = append(missing, filepath.Base(path))
			continue
		}

		content, err := os.ReadFile(resolved)
		if err != nil {
			slog.Warn("failed to read attachment", "path", resolved, "error", err)
			missing = append(missing, filepath.Base(path))
			continue
		}

		name := filepath.Base(resolved)
		msg.Attachments = append(msg.Attachments, email.Attachment{
			Filename:    name,
			ContentType: contentTypeFor(name),
			Content:     content,
		})
		attached = append(attached, name)
	}

	return msg, attached, missing
}

// FormatBody renders the fixed plain-text body template:
// greeting, body, and closing joined by blank lines, with the sender
// name appended after the closing.
func FormatBody(composed email.ComposedEmail, senderName string) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s,\n%s",
		composed.Greeting, composed.Body, composed.Closing, senderName)
}

// resolve turns a relative attachment path into one under the staging root.
func (b *Builder) resolve(path string) string {
	if filepath.IsAbs(path) || b.StagingRoot == "" {
		return path
	}
	return filepath.Join(b.StagingRoot, path)
}

// contentTypeFor guesses a MIME type from the file extension, defaulting
// to a generic binary type when the extension is unknown or implies a
// content encoding.
func contentTypeFor(filename string) string {
	ext := filepath.Ext(filename)
	if encodingExtensions[ext] {
		return fallbackContentType
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return fallbackContentType
	}
	// Strip parameters such as "; charset=utf-8" for a clean part header.
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}

// newMessageID generates a Message-ID value (without angle brackets)
// scoped to the sender's domain. Providers add the brackets when writing
// the header.
func newMessageID(senderAddr string) string {
	host := "localhost"
	if at := strings.LastIndex(senderAddr, "@"); at >= 0 && at < len(senderAddr)-1 {
		host = senderAddr[at+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.NewString(), host)
}
