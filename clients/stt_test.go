package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leadme-speech/fatigue-pipeline/audio"
)

func testSegment() audio.Signal {
	return audio.Signal{
		Samples:    []float64{0.1, -0.1, 0.2, -0.2, 0.3, -0.3, 0, 0.1},
		SampleRate: 16000,
	}
}

func TestTranscribeSuccess(t *testing.T) {
	var gotPath, gotFilename string
	var gotWAVHeader []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
			t.Errorf("content type = %q, want multipart/form-data", ct)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			gotFilename = header.Filename
			gotWAVHeader = make([]byte, 4)
			io.ReadFull(file, gotWAVHeader)
			file.Close()
		}
		json.NewEncoder(w).Encode(Transcript{
			Status:     TranscriptSuccess,
			Text:       "안녕하세요 반갑습니다",
			Confidence: 0.93,
		})
	}))
	defer srv.Close()

	tr, err := NewHTTP(srv.URL).Transcribe(context.Background(), testSegment())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotPath != "/transcribe" {
		t.Errorf("path = %q, want /transcribe", gotPath)
	}
	if !strings.HasSuffix(gotFilename, ".wav") {
		t.Errorf("uploaded filename = %q, want .wav suffix", gotFilename)
	}
	if !bytes.Equal(gotWAVHeader, []byte("RIFF")) {
		t.Errorf("upload starts with %q, want RIFF", gotWAVHeader)
	}
	if tr.Status != TranscriptSuccess {
		t.Errorf("status = %q, want %q", tr.Status, TranscriptSuccess)
	}
	if tr.Text != "안녕하세요 반갑습니다" {
		t.Errorf("text = %q", tr.Text)
	}
	if tr.Confidence != 0.93 {
		t.Errorf("confidence = %v, want 0.93", tr.Confidence)
	}
}

func TestTranscribeErrorStatus(t *testing.T) {
	// A well-formed reply carrying a failure status is not a transport error;
	// the caller decides how to fall back.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Transcript{Status: TranscriptError})
	}))
	defer srv.Close()

	tr, err := NewHTTP(srv.URL).Transcribe(context.Background(), testSegment())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Status != TranscriptError {
		t.Errorf("status = %q, want %q", tr.Status, TranscriptError)
	}
}

func TestTranscribeHTTPFailure(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"server error", http.StatusInternalServerError, "whisper worker crashed"},
		{"bad request", http.StatusBadRequest, "unsupported audio format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.body, tt.code)
			}))
			defer srv.Close()

			tr, err := NewHTTP(srv.URL).Transcribe(context.Background(), testSegment())
			if err == nil {
				t.Fatalf("Transcribe = %+v, want error", tr)
			}
			if !strings.Contains(err.Error(), tt.body) {
				t.Errorf("error %q does not carry the server reply %q", err, tt.body)
			}
		})
	}
}

func TestTranscribeCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Transcript{Status: TranscriptSuccess})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTP(srv.URL).Transcribe(ctx, testSegment()); err == nil {
		t.Fatal("Transcribe succeeded with a cancelled context")
	}
}
