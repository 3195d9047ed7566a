package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Bundle wraps a Result with session identity for persistence. Identity lives
// here rather than on the Result so repeated analyses of the same audio stay
// bit-identical.
type Bundle struct {
	SessionID   string    `json:"session_id"`
	AudioPath   string    `json:"audio_path"`
	GeneratedAt time.Time `json:"generated_at"`
	Result      *Result   `json:"result"`
}

func mkSessionDir(outputsRoot string) (string, string, error) {
	sid := "analysis_" + uuid.NewString()
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Persist writes the result bundle and the per-segment series under a fresh
// session directory and returns the session ID and file paths.
func Persist(outputsRoot, audioPath string, res *Result) (sessionID, resultPath, segmentsPath string, err error) {
	sid, outDir, err := mkSessionDir(outputsRoot)
	if err != nil {
		return "", "", "", err
	}

	resPath := filepath.Join(outDir, "result.json")
	segPath := filepath.Join(outDir, "segments.json")

	bundle := Bundle{
		SessionID:   sid,
		AudioPath:   audioPath,
		GeneratedAt: time.Now(),
		Result:      res,
	}
	if err = writeJSON(resPath, bundle); err != nil {
		return "", "", "", err
	}
	if err = writeJSON(segPath, res.Segments); err != nil {
		return "", "", "", err
	}

	return sid, resPath, segPath, nil
}
