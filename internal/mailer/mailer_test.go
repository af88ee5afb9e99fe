package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type capturedRequest struct {
	auth        string
	contentType string
	body        map[string]any
}

func mailServer(t *testing.T, status int, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v3/mail/send" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		*captured = append(*captured, capturedRequest{
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendDigest(t *testing.T) {
	var reqs []capturedRequest
	srv := mailServer(t, http.StatusAccepted, &reqs)
	c := NewWithBaseURL("sg-key", "digest@helsinkigse.fi", srv.URL, zap.NewNop())

	err := c.SendDigest(context.Background(), "user@example.com", "Subject", "<p>hi</p>", "https://hub.example.org/unsubscribe?x=1")
	if err != nil {
		t.Fatalf("SendDigest failed: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}

	req := reqs[0]
	if req.auth != "Bearer sg-key" {
		t.Errorf("auth = %q", req.auth)
	}
	if req.contentType != "application/json" {
		t.Errorf("content type = %q", req.contentType)
	}
	if got := req.body["subject"]; got != "Subject" {
		t.Errorf("subject = %v", got)
	}
	from := req.body["from"].(map[string]any)
	if from["email"] != "digest@helsinkigse.fi" {
		t.Errorf("from = %v", from)
	}
	headers, ok := req.body["headers"].(map[string]any)
	if !ok || headers["List-Unsubscribe"] != "<https://hub.example.org/unsubscribe?x=1>" {
		t.Errorf("List-Unsubscribe header = %v", req.body["headers"])
	}
}

func TestSendDigestNoUnsubscribeHeader(t *testing.T) {
	var reqs []capturedRequest
	srv := mailServer(t, http.StatusAccepted, &reqs)
	c := NewWithBaseURL("sg-key", "digest@helsinkigse.fi", srv.URL, zap.NewNop())

	if err := c.SendDigest(context.Background(), "user@example.com", "Subject", "<p>hi</p>", "#"); err != nil {
		t.Fatalf("SendDigest failed: %v", err)
	}
	if _, present := reqs[0].body["headers"]; present {
		t.Error("placeholder unsubscribe URL should not produce a header")
	}
}

func TestSendConfirmation(t *testing.T) {
	var reqs []capturedRequest
	srv := mailServer(t, http.StatusOK, &reqs)
	c := NewWithBaseURL("sg-key", "digest@helsinkigse.fi", srv.URL, zap.NewNop())

	err := c.SendConfirmation(context.Background(), "user@example.com", "https://hub.example.org/confirm?email=user@example.com&token=abc")
	if err != nil {
		t.Fatalf("SendConfirmation failed: %v", err)
	}

	contents := reqs[0].body["content"].([]any)
	html := contents[0].(map[string]any)["value"].(string)
	if !strings.Contains(html, "https://hub.example.org/confirm?email=user@example.com&token=abc") {
		t.Error("confirmation email missing the confirm link")
	}
	if reqs[0].body["subject"] != "Confirm your Helsinki GSE seminar subscription" {
		t.Errorf("subject = %v", reqs[0].body["subject"])
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	c := NewWithBaseURL("sg-key", "digest@helsinkigse.fi", srv.URL, zap.NewNop())

	if err := c.SendDigest(context.Background(), "user@example.com", "s", "h", "#"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestSendClientErrorIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"errors":[{"message":"bad address"}]}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	c := NewWithBaseURL("sg-key", "digest@helsinkigse.fi", srv.URL, zap.NewNop())

	err := c.SendDigest(context.Background(), "not-an-email", "s", "h", "#")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", calls)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should carry the status: %v", err)
	}
}
