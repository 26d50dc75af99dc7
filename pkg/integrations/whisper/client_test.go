package whisper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	httputil "github.com/caregrid/telemetry-relay/pkg/infrastructure/http"
)

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.MultipartForm.Value["model"][0] != "whisper-1" {
			t.Errorf("expected whisper-1 model, got %v", r.MultipartForm.Value["model"])
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "note.mp3" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "fake-audio-bytes" {
			t.Errorf("audio bytes mangled: %q", data)
		}
		w.Write([]byte(`{"text": "resident had a good morning walk"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk-test", server.URL)
	got, err := client.Transcribe(context.Background(), "note.mp3", []byte("fake-audio-bytes"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Text != "resident had a good morning walk" {
		t.Errorf("unexpected transcript %q", got.Text)
	}
}

func TestTranscribeAuthFailureSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("sk-bad", server.URL)
	_, err := client.Transcribe(context.Background(), "note.mp3", []byte("x"))
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if got := httputil.StatusOf(err); got != http.StatusUnauthorized {
		t.Errorf("expected status 401 in error chain, got %d", got)
	}
}
