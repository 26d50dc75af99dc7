package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	httputil "github.com/caregrid/telemetry-relay/pkg/infrastructure/http"
)

func TestSendSMS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("expected basic auth with account credentials")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form encoding, got %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("To") != "+15551234567" || r.PostForm.Get("From") != "+15550000001" {
			t.Errorf("unexpected form values: %v", r.PostForm)
		}
		if r.PostForm.Get("Body") != "Medication reminder" {
			t.Errorf("unexpected body %q", r.PostForm.Get("Body"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM900", "status": "queued", "to": "+15551234567", "from": "+15550000001"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("AC123", "secret", "+15550000001", server.URL)
	msg, err := client.SendSMS(context.Background(), "+15551234567", "Medication reminder")
	if err != nil {
		t.Fatalf("SendSMS failed: %v", err)
	}
	if msg.SID != "SM900" || msg.Status != "queued" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestSendSMSAuthFailureSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": 20003, "message": "Authentication Error"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("AC123", "wrong", "+15550000001", server.URL)
	_, err := client.SendSMS(context.Background(), "+15551234567", "hi")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if got := httputil.StatusOf(err); got != http.StatusUnauthorized {
		t.Errorf("expected status 401 in error chain, got %d", got)
	}
}
