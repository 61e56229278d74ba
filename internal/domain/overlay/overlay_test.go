package overlay

import (
	"strings"
	"testing"
)

func opts() Options {
	return Options{MaxCharsPerLine: 20, FadeDuration: 0.5}
}

func TestCompile_SingleValidOverlay(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: 5.0, Text: "Hello", Duration: 3.0},
	}, 60, opts())

	if res.Source != SourceParsed {
		t.Fatalf("expected parsed source, got %v", res.Source)
	}
	if len(res.Overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(res.Overlays))
	}
	ov := res.Overlays[0]
	if ov.StartTime != 5 || ov.EndTime != 8 {
		t.Fatalf("unexpected window: %v..%v", ov.StartTime, ov.EndTime)
	}
	if ov.Text != "Hello" || ov.Multiline {
		t.Fatalf("unexpected text: %+v", ov)
	}
	if ov.FadeDur != 0.5 {
		t.Fatalf("expected fade carried through, got %v", ov.FadeDur)
	}
}

func TestCompile_CoercesLooseTypes(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: "5", Text: "string timestamp"},
		{Timestamp: 10.0, Text: "bad duration", Duration: "soon"},
	}, 60, opts())

	if res.Source != SourceParsed {
		t.Fatalf("expected parsed source, got %v", res.Source)
	}
	if len(res.Overlays) != 2 {
		t.Fatalf("expected 2 overlays, got %d", len(res.Overlays))
	}
	// Missing and unparseable durations both default to 3 seconds.
	if res.Overlays[0].EndTime != 8 {
		t.Fatalf("expected default duration, got end %v", res.Overlays[0].EndTime)
	}
	if res.Overlays[1].EndTime != 13 {
		t.Fatalf("expected default duration, got end %v", res.Overlays[1].EndTime)
	}
}

func TestCompile_RejectsInvalidItems(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: -1.0, Text: "negative", Duration: 3.0},
		{Timestamp: "later", Text: "unparseable ts", Duration: 3.0},
		{Timestamp: 5.0, Text: "", Duration: 3.0},
		{Timestamp: 5.0, Text: 42, Duration: 3.0},
		{Timestamp: 5.0, Text: "zero duration", Duration: 0.0},
		{Timestamp: 6.0, Text: "survivor", Duration: 2.0},
	}, 60, opts())

	if res.Source != SourceParsed {
		t.Fatalf("expected parsed source, got %v", res.Source)
	}
	if len(res.Overlays) != 1 || res.Overlays[0].Text != "survivor" {
		t.Fatalf("expected only the survivor, got %+v", res.Overlays)
	}
	if len(res.Rejections) != 5 {
		t.Fatalf("expected 5 rejections, got %d: %+v", len(res.Rejections), res.Rejections)
	}
}

func TestCompile_DropsPastDurationWithoutFallback(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: 100.0, Text: "late", Duration: 3.0},
	}, 60, opts())

	if res.Source != SourceParsed {
		t.Fatalf("expected parsed source for a valid late overlay, got %v", res.Source)
	}
	if len(res.Overlays) != 0 {
		t.Fatalf("expected overlay past duration to be dropped, got %+v", res.Overlays)
	}
	if len(res.Rejections) != 0 {
		t.Fatalf("late overlays are not rejections: %+v", res.Rejections)
	}
}

func TestCompile_ClampsEndTimeToDuration(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: 58.0, Text: "tail", Duration: 10.0},
	}, 60, opts())

	if len(res.Overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(res.Overlays))
	}
	if res.Overlays[0].EndTime != 60 {
		t.Fatalf("expected end clamped to exactly 60, got %v", res.Overlays[0].EndTime)
	}
}

func TestCompile_SortsByStartTime(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: 30.0, Text: "third", Duration: 3.0},
		{Timestamp: 5.0, Text: "first", Duration: 3.0},
		{Timestamp: 20.0, Text: "second", Duration: 3.0},
	}, 60, opts())

	if len(res.Overlays) != 3 {
		t.Fatalf("expected 3 overlays, got %d", len(res.Overlays))
	}
	for i, want := range []float64{5, 20, 30} {
		if res.Overlays[i].StartTime != want {
			t.Fatalf("overlay %d starts at %v, want %v", i, res.Overlays[i].StartTime, want)
		}
	}
}

func TestCompile_FallbackWhenNothingValid(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: -1.0, Text: "bad", Duration: 3.0},
		{Timestamp: 5.0, Text: "", Duration: 3.0},
	}, 60, opts())

	if res.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %v", res.Source)
	}
	if len(res.Overlays) != 1 {
		t.Fatalf("expected the single default overlay, got %d", len(res.Overlays))
	}
	ov := res.Overlays[0]
	if ov.StartTime != 5 || ov.EndTime != 8 {
		t.Fatalf("unexpected fallback window: %v..%v", ov.StartTime, ov.EndTime)
	}
	if !strings.Contains(ov.Text, "Financial tip!") {
		t.Fatalf("unexpected fallback text: %q", ov.Text)
	}
	if len(res.Rejections) != 2 {
		t.Fatalf("expected 2 rejections, got %d", len(res.Rejections))
	}
}

func TestCompile_FallbackOutOfRangeOnShortVideo(t *testing.T) {
	res := Compile([]RawInstruction{
		{Timestamp: "nope", Text: "bad", Duration: 3.0},
	}, 4, opts())

	if res.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %v", res.Source)
	}
	if len(res.Overlays) != 0 {
		t.Fatalf("fallback starts past a 4s video, expected no overlays, got %+v", res.Overlays)
	}
}

func TestCompile_EmptyInput(t *testing.T) {
	res := Compile(nil, 60, opts())
	if res.Source != SourceEmpty {
		t.Fatalf("expected empty source, got %v", res.Source)
	}
	if len(res.Overlays) != 0 {
		t.Fatalf("expected no overlays, got %+v", res.Overlays)
	}
}

func TestCompile_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 120)
	res := Compile([]RawInstruction{
		{Timestamp: 1.0, Text: long, Duration: 3.0},
	}, 60, opts())

	if len(res.Overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(res.Overlays))
	}
	text := res.Overlays[0].Text
	if !strings.HasSuffix(text, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", text)
	}
	if got := len([]rune(text)); got != 100 {
		t.Fatalf("expected 100 runes after truncation, got %d", got)
	}
}
