package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// Transcribe runs whisper.cpp over an extracted wav and returns the plain
// transcript text. The JSON sidecar is written into workDir so repeated
// runs on the same input never collide with other jobs.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, workDir string) (string, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return "", err
	}
	return parseTranscript(jb)
}

type transcriptJSON struct {
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

func parseTranscript(raw []byte) (string, error) {
	var tr transcriptJSON
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("parse whisper output: %w", err)
	}
	parts := make([]string, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}
