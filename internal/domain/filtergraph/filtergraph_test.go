package filtergraph

import (
	"strings"
	"testing"

	"github.com/reelkit/reelcut/internal/types"
)

func style() TextStyle {
	return TextStyle{FontSize: 48, FontColor: "white", OutlineWidth: 2, OutlineColor: "black"}
}

func TestBuild_CropScaleAndCaption(t *testing.T) {
	g := Build(Input{
		Window: types.CropWindow{Width: 607, Height: 1080, XOffset: 656, YOffset: 0},
		SrcW:   1920, SrcH: 1080,
		OutW: 1080, OutH: 1920,
		Overlays: []types.Overlay{
			{StartTime: 5, EndTime: 8, Text: "Hello", FadeDur: 0.5},
		},
		Style: style(),
	})

	filter, label := g.FilterComplex()
	want := "[0:v]crop=607:1080:656:0,scale=1080:1920[processed];" +
		"[processed]drawtext=text='Hello':fontsize=48:fontcolor=white:borderw=2:bordercolor=black" +
		":x=(w-text_w)/2:y=(h-text_h)*0.7:box=1:boxcolor=black@0.4:boxborderw=8" +
		":enable='between(t,5.0,8.0)'" +
		":alpha='if(lt(t,5.5),(t-5.0)/0.5,1)*if(gt(t,7.5),(8.0-t)/0.5,1)'[final]"
	if filter != want {
		t.Fatalf("unexpected filter:\n got %q\nwant %q", filter, want)
	}
	if label != "[final]" {
		t.Fatalf("unexpected final label %q", label)
	}
}

func TestBuild_LogoChain(t *testing.T) {
	g := Build(Input{
		Window: types.CropWindow{Width: 607, Height: 1080, XOffset: 656, YOffset: 0},
		SrcW:   1920, SrcH: 1080,
		OutW: 1080, OutH: 1920,
		Logo: &LogoPlacement{Position: "top-right", SizePercent: 15, Margin: 20},
	})

	if !g.HasLogo() {
		t.Fatalf("expected logo stage")
	}
	filter, label := g.FilterComplex()
	want := "[0:v]crop=607:1080:656:0,scale=1080:1920[cropped];" +
		"[1:v]scale=162:-1[logo];" +
		"[cropped][logo]overlay=898:20[with_logo]"
	if filter != want {
		t.Fatalf("unexpected filter:\n got %q\nwant %q", filter, want)
	}
	if label != "[with_logo]" {
		t.Fatalf("unexpected final label %q", label)
	}
}

func TestBuild_EmptyGraphForMatchingSource(t *testing.T) {
	g := Build(Input{
		Window: types.CropWindow{Width: 1080, Height: 1920},
		SrcW:   1080, SrcH: 1920,
		OutW: 1080, OutH: 1920,
	})
	if !g.Empty() {
		t.Fatalf("expected empty graph, got %+v", g.Stages)
	}
	filter, label := g.FilterComplex()
	if filter != "" || label != "" {
		t.Fatalf("empty graph must serialize to nothing, got %q %q", filter, label)
	}
}

func TestBuild_ScaleOnly(t *testing.T) {
	g := Build(Input{
		Window: types.CropWindow{Width: 540, Height: 960},
		SrcW:   540, SrcH: 960,
		OutW: 1080, OutH: 1920,
	})
	filter, label := g.FilterComplex()
	if filter != "[0:v]scale=1080:1920[processed]" {
		t.Fatalf("unexpected filter %q", filter)
	}
	if label != "[processed]" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestBuild_CropOnly(t *testing.T) {
	g := Build(Input{
		Window: types.CropWindow{Width: 607, Height: 1080, XOffset: 656, YOffset: 0},
		SrcW:   1920, SrcH: 1080,
		OutW: 607, OutH: 1080,
	})
	filter, _ := g.FilterComplex()
	if filter != "[0:v]crop=607:1080:656:0[processed]" {
		t.Fatalf("unexpected filter %q", filter)
	}
}

func TestBuild_MultipleCaptionsShareOneChain(t *testing.T) {
	g := Build(Input{
		Window: types.CropWindow{Width: 1080, Height: 1920},
		SrcW:   1080, SrcH: 1920,
		OutW: 1080, OutH: 1920,
		Overlays: []types.Overlay{
			{StartTime: 1, EndTime: 4, Text: "first"},
			{StartTime: 3, EndTime: 6, Text: "second"},
		},
		Style: style(),
	})

	filter, label := g.FilterComplex()
	if strings.Count(filter, "drawtext=") != 2 {
		t.Fatalf("expected 2 drawtext stages, got %q", filter)
	}
	if strings.Count(filter, ";") != 0 {
		t.Fatalf("captions must share one chain, got %q", filter)
	}
	if !strings.HasPrefix(filter, "[0:v]drawtext=") || !strings.HasSuffix(filter, "[final]") {
		t.Fatalf("unexpected chain shape %q", filter)
	}
	if strings.Index(filter, "first") > strings.Index(filter, "second") {
		t.Fatalf("caption order not preserved: %q", filter)
	}
	if label != "[final]" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestDrawtextExpr_MultilineShrinksAndLifts(t *testing.T) {
	expr := drawtextExpr(TextStage{
		Text:         "one\ntwo",
		Multiline:    true,
		FontSize:     48,
		FontColor:    "white",
		OutlineWidth: 2,
		OutlineColor: "black",
		Start:        1,
		End:          4,
	})

	if !strings.Contains(expr, ":fontsize=40:") {
		t.Fatalf("expected 15%% shrink to 40, got %q", expr)
	}
	if !strings.Contains(expr, ":y=(h-text_h)*0.65:") {
		t.Fatalf("expected lifted anchor, got %q", expr)
	}
	if !strings.Contains(expr, `text='one\ntwo'`) {
		t.Fatalf("expected escaped newline, got %q", expr)
	}
	if strings.Contains(expr, ":alpha=") {
		t.Fatalf("zero fade must not emit alpha, got %q", expr)
	}
}

func TestEscapeDrawText(t *testing.T) {
	in := "it's 50:50 \"odds\"\nC:\\path"
	want := `it\'s 50\:50 \"odds\"\nC\:\\path`
	if got := escapeDrawText(in); got != want {
		t.Fatalf("escapeDrawText = %q, want %q", got, want)
	}
}

func TestLogoXY_Positions(t *testing.T) {
	const (
		frameW = 1080
		frameH = 1920
		size   = 162
		margin = 20
	)
	tests := []struct {
		position string
		x, y     int
	}{
		{"top-left", 20, 20},
		{"top-right", 898, 20},
		{"bottom-left", 20, 1738},
		{"bottom-right", 898, 1738},
		{"center", 459, 879},
	}
	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			x, y := logoXY(tt.position, frameW, frameH, size, margin)
			if x != tt.x || y != tt.y {
				t.Fatalf("logoXY(%s) = (%d, %d), want (%d, %d)", tt.position, x, y, tt.x, tt.y)
			}
		})
	}
}
