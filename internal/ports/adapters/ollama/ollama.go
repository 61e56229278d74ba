package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reelkit/reelcut/internal/domain/overlay"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.1"
	defaultTimeout = 120 * time.Second

	// captionMaxRunes keeps captions postable; Instagram cuts off around
	// 2200 characters.
	captionMaxRunes = 2200
)

const analysisPrompt = `You are preparing on-screen text overlays for a short vertical video.
Read the transcript below and pick up to 5 moments worth calling out.
Return strictly valid JSON (no markdown, no code fences) shaped as:
{"overlays":[{"timestamp":<seconds from start>,"text":"<short punchy phrase, emoji welcome>","duration":<seconds on screen>}]}
Timestamps must fall inside the video and each text must stay under 100 characters.`

const captionPrompt = `Write a social media caption for a short vertical video with the transcript below.
Keep it engaging and professional, end with a short call to action and a few relevant hashtags.
Return plain text only, no markdown.`

type Adapter struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
}

func New(baseURL, model string, timeout time.Duration) *Adapter {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Overlays asks the model for caption instructions. Transport and server
// errors propagate; a reply that holds no recognizable JSON degrades to the
// single default instruction so the pipeline still produces a useful video.
func (a *Adapter) Overlays(ctx context.Context, transcript string) ([]overlay.RawInstruction, error) {
	resp, err := a.generate(ctx, analysisPrompt+"\n\nTranscript:\n"+transcript)
	if err != nil {
		return nil, err
	}
	return parseOverlays(resp), nil
}

func parseOverlays(content string) []overlay.RawInstruction {
	clean, err := extractJSONObject(content)
	if err != nil {
		return []overlay.RawInstruction{overlay.Fallback()}
	}
	var out struct {
		Overlays []overlay.RawInstruction `json:"overlays"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return []overlay.RawInstruction{overlay.Fallback()}
	}
	return out.Overlays
}

// Caption asks the model for a post caption and cleans the reply up.
func (a *Adapter) Caption(ctx context.Context, transcript string) (string, error) {
	resp, err := a.generate(ctx, captionPrompt+"\n\nTranscript:\n"+transcript)
	if err != nil {
		return "", err
	}
	return cleanCaption(resp), nil
}

// Ping checks that the Ollama service answers at all.
func (a *Adapter) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", a.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", a.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	return nil
}

func (a *Adapter) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  a.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.7,
			"num_predict": 1000,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", a.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("ollama timeout after %s (model=%s)", a.timeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("ollama status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, truncate(string(rb), 400))
	}

	var raw struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw.Response), nil
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("ollama: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("ollama: could not locate JSON object in: %q", truncate(t, 200))
}

func cleanCaption(s string) string {
	caption := strings.TrimSpace(s)

	// Models sometimes wrap the caption in a JSON object despite the prompt.
	if strings.HasPrefix(caption, "{") && strings.HasSuffix(caption, "}") {
		var obj struct {
			Caption string `json:"caption"`
		}
		if err := json.Unmarshal([]byte(caption), &obj); err == nil && strings.TrimSpace(obj.Caption) != "" {
			caption = strings.TrimSpace(obj.Caption)
		}
	}

	caption = strings.ReplaceAll(caption, "**", "")
	caption = strings.ReplaceAll(caption, "*", "")

	r := []rune(caption)
	if len(r) > captionMaxRunes {
		caption = string(r[:captionMaxRunes-3]) + "..."
	}
	return caption
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
