package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"slackpulse-backend/internal/models"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type fakeEnqueuer struct {
	jobs    []models.MeetingJob
	failAll bool
}

func (f *fakeEnqueuer) EnqueueMeeting(_ context.Context, job models.MeetingJob) error {
	if f.failAll {
		return errors.New("broker unavailable")
	}
	f.jobs = append(f.jobs, job)
	return nil
}

// signRequest attaches the v0 Slack signature headers for the given body.
func signRequest(r *http.Request, body string) {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookURLVerificationChallenge(t *testing.T) {
	h := NewWebhookHandler(testSigningSecret, nil)

	body := `{"type":"url_verification","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"}`
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	signRequest(req, body)

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["challenge"] != "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P" {
		t.Errorf("Challenge not echoed, got %q", resp["challenge"])
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := NewWebhookHandler(testSigningSecret, nil)

	body := `{"type":"url_verification","challenge":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
}

func TestWebhookRejectsMissingSignatureHeaders(t *testing.T) {
	h := NewWebhookHandler(testSigningSecret, nil)

	body := `{"type":"url_verification","challenge":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
}

func TestWebhookEventAcknowledged(t *testing.T) {
	h := NewWebhookHandler(testSigningSecret, nil)

	body := `{"type":"event_callback","event":{"type":"app_mention","user":"U123"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	signRequest(req, body)

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func meetingCommandForm(text string) url.Values {
	return url.Values{
		"command":      {"/meeting"},
		"team_id":      {"T123"},
		"channel_id":   {"C456"},
		"user_id":      {"U789"},
		"user_name":    {"jess"},
		"text":         {text},
		"response_url": {"https://hooks.slack.com/commands/T123/resp"},
	}
}

func TestWebhookMeetingCommandAcksAndEnqueues(t *testing.T) {
	queue := &fakeEnqueuer{}
	h := NewWebhookHandler(testSigningSecret, queue)

	body := meetingCommandForm("  standup sync  ").Encode()
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	signRequest(req, body)

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["response_type"] != "in_channel" {
		t.Errorf("Expected in_channel ack, got %q", resp["response_type"])
	}
	if !strings.Contains(resp["text"], "Creating your meeting link") {
		t.Errorf("Unexpected ack text %q", resp["text"])
	}

	if len(queue.jobs) != 1 {
		t.Fatalf("Expected 1 enqueued job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.WorkspaceID != "T123" || job.ChannelID != "C456" || job.UserID != "U789" || job.UserName != "jess" {
		t.Errorf("Job carries wrong identity fields: %+v", job)
	}
	if job.Topic != "standup sync" {
		t.Errorf("Expected trimmed topic 'standup sync', got %q", job.Topic)
	}
	if job.ID == "" {
		t.Error("Expected a generated job ID")
	}
	if job.ResponseURL != "https://hooks.slack.com/commands/T123/resp" {
		t.Errorf("Expected response URL to be carried, got %q", job.ResponseURL)
	}
	if job.RequestedAt == 0 {
		t.Error("Expected RequestedAt to be set")
	}
}

func TestWebhookMeetingCommandEnqueueFailure(t *testing.T) {
	queue := &fakeEnqueuer{failAll: true}
	h := NewWebhookHandler(testSigningSecret, queue)

	body := meetingCommandForm("").Encode()
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	signRequest(req, body)

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	// Slack renders the failure to the user; the HTTP exchange itself
	// succeeded, so the status stays 200.
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["response_type"] != "ephemeral" {
		t.Errorf("Expected ephemeral failure response, got %q", resp["response_type"])
	}
	if !strings.Contains(resp["text"], "could not be scheduled") {
		t.Errorf("Unexpected failure text %q", resp["text"])
	}
}

func TestWebhookUnknownSlashCommand(t *testing.T) {
	h := NewWebhookHandler(testSigningSecret, nil)

	form := url.Values{
		"command":      {"/standup"},
		"team_id":      {"T123"},
		"channel_id":   {"C123"},
		"user_id":      {"U123"},
		"user_name":    {"jess"},
		"text":         {""},
		"response_url": {"https://hooks.slack.com/commands/T123/resp"},
	}
	body := form.Encode()
	req := httptest.NewRequest(http.MethodPost, "/slack/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	signRequest(req, body)

	rr := httptest.NewRecorder()
	h.Handle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["response_type"] != "ephemeral" {
		t.Errorf("Expected ephemeral response, got %q", resp["response_type"])
	}
}
