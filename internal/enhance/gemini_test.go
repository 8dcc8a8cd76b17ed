package enhance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer returns an httptest server responding with the given
// status and body for every generateContent call.
func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func candidateResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]string{{"text": text}},
			},
			"finishReason": "STOP",
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGenerate_Success(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, candidateResponse("generated email text"))

	c := NewClient(ClientConfig{APIKey: "k", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), "write an email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "generated email text" {
		t.Errorf("Generate(): got %q, want %q", got, "generated email text")
	}
}

func TestGenerate_ConcatenatesParts(t *testing.T) {
	resp := `{"candidates":[{"content":{"role":"model","parts":[{"text":"first "},{"text":"second"}]}}]}`
	srv := newTestServer(t, http.StatusOK, resp)

	c := NewClient(ClientConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	got, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first second" {
		t.Errorf("Generate(): got %q, want %q", got, "first second")
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSub string
	}{
		{"http error status", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota"}}`, "status 429"},
		{"error object", http.StatusOK, `{"error":{"code":400,"message":"bad key","status":"INVALID_ARGUMENT"}}`, "bad key"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "no candidates"},
		{"malformed body", http.StatusOK, `{{{`, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body)
			c := NewClient(ClientConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

			_, err := c.Generate(context.Background(), "p")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{Model: "m"})
	if _, err := c.Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestEnhance_EndToEndAgainstStub(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, candidateResponse("```json\n"+validJSON+"\n```"))

	c := NewClient(ClientConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	res := NewModelEnhancer(c).Enhance(context.Background(), Request{Idea: "share results", Tone: "professional"})

	if res.Source != SourceModel {
		t.Fatalf("Source: got %q, want %q", res.Source, SourceModel)
	}
	if res.Email.Subject != "Q4 Results" {
		t.Errorf("Subject: got %q, want %q", res.Email.Subject, "Q4 Results")
	}
}

func TestEnhance_EndToEndUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	// Closed port: the call fails and the fallback must kick in.
	c := NewClient(ClientConfig{APIKey: "k", Model: "m", BaseURL: "http://127.0.0.1:1"})
	res := NewModelEnhancer(c).Enhance(context.Background(), Request{Idea: "server move", Tone: "professional"})

	if res.Source != SourceFallback {
		t.Fatalf("Source: got %q, want %q", res.Source, SourceFallback)
	}
	if !strings.HasPrefix(res.Email.Subject, "Update: server move") {
		t.Errorf("Subject: got %q, want idea-prefixed fallback", res.Email.Subject)
	}
}
