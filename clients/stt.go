package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/leadme-speech/fatigue-pipeline/audio"
)

const (
	TranscriptSuccess = "success"
	TranscriptError   = "error"
)

// Transcript is the transcription service's answer for one audio segment.
type Transcript struct {
	Status     string  `json:"status"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber converts one audio segment to text. A returned error or a
// Transcript with Status != "success" both mean the caller must fall back to
// its duration-based estimate; neither aborts the analysis.
type Transcriber interface {
	Transcribe(ctx context.Context, seg audio.Signal) (*Transcript, error)
}

// Transcribe uploads the segment as a WAV file and decodes the JSON reply.
func (h *HTTP) Transcribe(ctx context.Context, seg audio.Signal) (*Transcript, error) {
	tmp, err := os.CreateTemp("", "segment-*.wav")
	if err != nil {
		return nil, fmt.Errorf("stt temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := audio.EncodeWAV(tmp, seg); err != nil {
		return nil, fmt.Errorf("stt encode: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", filepath.Base(tmp.Name()))
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(fw, tmp); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stt %s: %s", resp.Status, string(body))
	}

	var out Transcript
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("stt decode: %w", err)
	}
	return &out, nil
}
