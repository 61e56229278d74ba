package overlay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reelkit/reelcut/internal/types"
)

const (
	// maxTextRunes caps raw caption text before wrapping; longer text is
	// cut to 97 runes plus an ellipsis.
	maxTextRunes = 100

	defaultDuration = 3.0
)

// RawInstruction is one caption instruction as delivered by the content
// analyzer. Fields are loosely typed on purpose: LLM output routinely mixes
// numbers and numeric strings, and compilation decides what is salvageable.
type RawInstruction struct {
	Timestamp any `json:"timestamp"`
	Text      any `json:"text"`
	Duration  any `json:"duration"`
}

// Source tags how a compiled timeline came to be.
type Source int

const (
	// SourceEmpty means no instructions were supplied at all.
	SourceEmpty Source = iota
	// SourceParsed means at least one instruction passed validation.
	SourceParsed
	// SourceFallback means instructions were supplied but none passed
	// validation, so the single default overlay was substituted.
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceParsed:
		return "parsed"
	case SourceFallback:
		return "fallback"
	default:
		return "empty"
	}
}

// Rejection records one discarded instruction with the reason, for logging.
type Rejection struct {
	Index  int
	Reason string
}

type Result struct {
	Overlays   []types.Overlay
	Source     Source
	Rejections []Rejection
}

type Options struct {
	MaxCharsPerLine int
	FadeDuration    float64
}

// Fallback is the documented default overlay substituted when an analyzer
// delivered instructions but nothing in them was usable.
func Fallback() RawInstruction {
	return RawInstruction{Timestamp: 5.0, Text: "💰 Financial tip!", Duration: 3.0}
}

// Compile validates, clamps, wraps and time-orders raw caption instructions
// against the video duration. Individual bad instructions are dropped and
// reported, never fatal. Instructions that validate but start at or past the
// end of the video are dropped silently; they do not trigger the fallback.
func Compile(raws []RawInstruction, videoDuration float64, opts Options) Result {
	if opts.MaxCharsPerLine <= 0 {
		opts.MaxCharsPerLine = 20
	}

	if len(raws) == 0 {
		return Result{Source: SourceEmpty}
	}

	var (
		out        []types.Overlay
		rejections []Rejection
		validCount int
	)

	for i, raw := range raws {
		ov, reason := compileOne(raw, videoDuration, opts)
		if reason != "" {
			rejections = append(rejections, Rejection{Index: i, Reason: reason})
			continue
		}
		validCount++
		if ov == nil {
			// Valid but out of the video's time range.
			continue
		}
		out = append(out, *ov)
	}

	if validCount > 0 {
		sortOverlays(out)
		return Result{Overlays: out, Source: SourceParsed, Rejections: rejections}
	}

	// Nothing usable arrived; substitute the documented default so the
	// pipeline still produces a caption instead of silently going blank.
	ov, reason := compileOne(Fallback(), videoDuration, opts)
	res := Result{Source: SourceFallback, Rejections: rejections}
	if reason == "" && ov != nil {
		res.Overlays = []types.Overlay{*ov}
	}
	return res
}

// compileOne returns (nil, reason) for invalid instructions and (nil, "")
// for valid instructions outside the video's time range.
func compileOne(raw RawInstruction, videoDuration float64, opts Options) (*types.Overlay, string) {
	ts, ok := asNumber(raw.Timestamp)
	if !ok || ts < 0 {
		return nil, fmt.Sprintf("bad timestamp %v", raw.Timestamp)
	}

	text, ok := raw.Text.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, "empty text"
	}

	d := defaultDuration
	if raw.Duration != nil {
		if parsed, ok := asNumber(raw.Duration); ok {
			d = parsed
		}
	}
	if d <= 0 {
		return nil, fmt.Sprintf("non-positive duration %v", raw.Duration)
	}

	if r := []rune(text); len(r) > maxTextRunes {
		text = string(r[:maxTextRunes-3]) + "..."
	}

	if ts >= videoDuration {
		return nil, ""
	}

	end := ts + d
	if end > videoDuration {
		end = videoDuration
	}

	wrapped, multiline := WrapText(text, opts.MaxCharsPerLine)
	return &types.Overlay{
		StartTime: ts,
		EndTime:   end,
		Text:      wrapped,
		Multiline: multiline,
		FadeDur:   opts.FadeDuration,
	}, ""
}

func sortOverlays(out []types.Overlay) {
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
