// Package tools exposes the mailer operations as MCP tools. All tool
// inputs and outputs are strings; comma-separated lists are the only
// structured-input convention.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shineum/mcp-mailer-lite/internal/batch"
	"github.com/shineum/mcp-mailer-lite/internal/staging"
)

// Sender runs a batch send. Implemented by batch.Orchestrator.
type Sender interface {
	SendBatch(ctx context.Context, req batch.Request) string
}

// Handlers binds the MCP tool surface to the orchestrator and the
// staging store.
type Handlers struct {
	sender  Sender
	staging *staging.Store
}

// NewHandlers creates the tool handlers.
func NewHandlers(sender Sender, store *staging.Store) *Handlers {
	return &Handlers{sender: sender, staging: store}
}

// Register adds all three tools to the MCP server.
func (h *Handlers) Register(s *server.MCPServer) {
	s.AddTool(sendEmailTool(), h.SendProfessionalEmail)
	s.AddTool(listAttachmentsTool(), h.ListAttachments)
	s.AddTool(saveTempFileTool(), h.SaveTempFile)
}

func sendEmailTool() mcp.Tool {
	return mcp.NewTool("send_professional_email",
		mcp.WithDescription("Send professional emails to multiple recipients with optional attachments. "+
			"Provide a short main idea and a list of email addresses - the tool expands it into a polished "+
			"email with proper subject, greeting, and sign-off, and sends each recipient an individually "+
			"addressed copy. Use recipient_names for personalized greetings (comma-separated, same order "+
			"as recipients). Attachment paths come from the save_temp_file tool; separate multiple paths "+
			"with commas."),
		mcp.WithString("main_idea", mcp.Required(),
			mcp.Description("Short description of what you want to communicate")),
		mcp.WithString("recipients", mcp.Required(),
			mcp.Description("Comma-separated list of recipient email addresses")),
		mcp.WithString("tone",
			mcp.Description("Email tone - professional (default), friendly, or formal")),
		mcp.WithString("cc",
			mcp.Description("Optional comma-separated CC recipients")),
		mcp.WithString("bcc",
			mcp.Description("Optional comma-separated BCC recipients")),
		mcp.WithString("attachments",
			mcp.Description("Comma-separated file paths (use paths from save_temp_file tool)")),
		mcp.WithString("recipient_names",
			mcp.Description("Optional comma-separated recipient names, same order as recipients")),
	)
}

func listAttachmentsTool() mcp.Tool {
	return mcp.NewTool("list_attachments",
		mcp.WithDescription("List available files that can be attached to emails. "+
			"Helps users find files to attach."),
		mcp.WithString("directory",
			mcp.Description("Optional directory path to search (default: the attachment staging directory)")),
	)
}

func saveTempFileTool() mcp.Tool {
	return mcp.NewTool("save_temp_file",
		mcp.WithDescription("Save content to the attachment staging directory for use as an email "+
			"attachment. For text files pass the raw content; for binary files (PDF, images, etc.) "+
			"pass base64 encoded content and set is_base64. Returns the path to use in the "+
			"send_professional_email attachments parameter."),
		mcp.WithString("filename", mcp.Required(),
			mcp.Description("Name for the file (e.g., \"document.txt\", \"report.pdf\", \"image.png\")")),
		mcp.WithString("content", mcp.Required(),
			mcp.Description("The file content (text, or base64 encoded for binary files)")),
		mcp.WithBoolean("is_base64",
			mcp.Description("Set to true if content is base64 encoded (for PDFs, images, etc.)")),
	)
}

// SendProfessionalEmail handles the send_professional_email tool call.
func (h *Handlers) SendProfessionalEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mainIdea, err := request.RequireString("main_idea")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recipients, err := request.RequireString("recipients")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := batch.Request{
		Idea:            mainIdea,
		Tone:            request.GetString("tone", "professional"),
		Recipients:      parseList(recipients),
		Names:           parseList(request.GetString("recipient_names", "")),
		Cc:              parseList(request.GetString("cc", "")),
		Bcc:             parseList(request.GetString("bcc", "")),
		AttachmentPaths: parseList(request.GetString("attachments", "")),
	}

	slog.Info("send_professional_email invoked",
		"recipients", len(req.Recipients),
		"cc", len(req.Cc),
		"bcc", len(req.Bcc),
		"attachments", len(req.AttachmentPaths),
	)

	return mcp.NewToolResultText(h.sender.SendBatch(ctx, req)), nil
}

// ListAttachments handles the list_attachments tool call.
func (h *Handlers) ListAttachments(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := request.GetString("directory", "")
	if dir == "" {
		dir = h.staging.Root()
	}

	files, err := h.staging.List(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error listing directory: %v", err)), nil
	}

	return mcp.NewToolResultText(staging.FormatListing(dir, files)), nil
}

// SaveTempFile handles the save_temp_file tool call.
func (h *Handlers) SaveTempFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	isBase64 := request.GetBool("is_base64", false)

	saved, err := h.staging.Save(filename, content, isBase64)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error saving file: %v", err)), nil
	}

	slog.Info("file staged for attachment", "file", saved.Name, "size", saved.Size)

	text := fmt.Sprintf(`✓ File saved successfully!

File: %s
Size: %s
Path: %s

To attach this file to an email, use:
attachments=%q`, saved.Name, staging.FormatSize(saved.Size), saved.Path, saved.Path)

	return mcp.NewToolResultText(text), nil
}

// parseList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
