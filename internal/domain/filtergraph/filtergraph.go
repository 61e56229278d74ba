package filtergraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reelkit/reelcut/internal/types"
)

// Stage is one typed node in the transform chain. Stages carry semantic
// parameters only; nothing here knows ffmpeg's textual syntax. Serialization
// and escaping live in FilterComplex alone.
type Stage interface {
	isStage()
}

type CropStage struct {
	W, H, X, Y int
}

type ScaleStage struct {
	W, H int
}

// LogoStage composites the second input (the logo file) onto the frame.
// Size is the logo's target width in pixels; height follows the asset's
// aspect ratio.
type LogoStage struct {
	Size int
	X, Y int
}

// TextStage draws one timed caption. FontSize is the configured size; the
// serializer shrinks it 15% for multi-line text and lifts the anchor.
type TextStage struct {
	Text         string
	Multiline    bool
	FontSize     int
	FontColor    string
	OutlineWidth int
	OutlineColor string
	Start        float64
	End          float64
	Fade         float64
}

func (CropStage) isStage()  {}
func (ScaleStage) isStage() {}
func (LogoStage) isStage()  {}
func (TextStage) isStage()  {}

// Graph is an ordered chain of stages threaded through named intermediate
// labels. The zero value is the empty graph, which callers must treat as
// "stream copy, no re-encode".
type Graph struct {
	Stages []Stage
}

func (g Graph) Empty() bool { return len(g.Stages) == 0 }

// HasLogo reports whether the graph consumes a second (logo) input.
func (g Graph) HasLogo() bool {
	for _, s := range g.Stages {
		if _, ok := s.(LogoStage); ok {
			return true
		}
	}
	return false
}

type TextStyle struct {
	FontSize     int
	FontColor    string
	OutlineWidth int
	OutlineColor string
}

type LogoPlacement struct {
	Position    string
	SizePercent float64
	Margin      int
}

type Input struct {
	Window     types.CropWindow
	SrcW, SrcH int
	OutW, OutH int
	Logo       *LogoPlacement
	Overlays   []types.Overlay
	Style      TextStyle
}

// Build assembles the transform chain for one render: crop when the window
// differs from the full source frame, scale when dimensions still differ
// from the output resolution, then the optional logo composite and one text
// stage per compiled overlay. A source already at target geometry with no
// logo and no overlays yields the empty graph.
func Build(in Input) Graph {
	var g Graph

	if !in.Window.IsFullFrame(in.SrcW, in.SrcH) {
		g.Stages = append(g.Stages, CropStage{
			W: in.Window.Width,
			H: in.Window.Height,
			X: in.Window.XOffset,
			Y: in.Window.YOffset,
		})
	}
	if in.Window.Width != in.OutW || in.Window.Height != in.OutH {
		g.Stages = append(g.Stages, ScaleStage{W: in.OutW, H: in.OutH})
	}

	if in.Logo != nil {
		size := int(float64(minInt(in.OutW, in.OutH)) * in.Logo.SizePercent / 100)
		if size < 1 {
			size = 1
		}
		x, y := logoXY(in.Logo.Position, in.OutW, in.OutH, size, in.Logo.Margin)
		g.Stages = append(g.Stages, LogoStage{Size: size, X: x, Y: y})
	}

	for _, ov := range in.Overlays {
		g.Stages = append(g.Stages, TextStage{
			Text:         ov.Text,
			Multiline:    ov.Multiline,
			FontSize:     in.Style.FontSize,
			FontColor:    in.Style.FontColor,
			OutlineWidth: in.Style.OutlineWidth,
			OutlineColor: in.Style.OutlineColor,
			Start:        ov.StartTime,
			End:          ov.EndTime,
			Fade:         ov.FadeDur,
		})
	}

	return g
}

// logoXY resolves a named corner/center position against the frame the logo
// is composited on, which is the post-scale output frame.
func logoXY(position string, frameW, frameH, size, margin int) (int, int) {
	switch position {
	case "top-left":
		return margin, margin
	case "bottom-left":
		return margin, frameH - size - margin
	case "bottom-right":
		return frameW - size - margin, frameH - size - margin
	case "center":
		return (frameW - size) / 2, (frameH - size) / 2
	default: // top-right
		return frameW - size - margin, margin
	}
}

// FilterComplex serializes the graph to ffmpeg filter syntax and returns
// the string together with the final output label for stream mapping. This
// is the single boundary between typed stages and the renderer's textual
// DSL; every escaping rule lives here.
func (g Graph) FilterComplex() (string, string) {
	if g.Empty() {
		return "", ""
	}

	var (
		geom  []string
		logo  *LogoStage
		texts []TextStage
	)
	for _, s := range g.Stages {
		switch st := s.(type) {
		case CropStage:
			geom = append(geom, fmt.Sprintf("crop=%d:%d:%d:%d", st.W, st.H, st.X, st.Y))
		case ScaleStage:
			geom = append(geom, fmt.Sprintf("scale=%d:%d", st.W, st.H))
		case LogoStage:
			ls := st
			logo = &ls
		case TextStage:
			texts = append(texts, st)
		}
	}

	var chains []string
	cur := "0:v"

	if len(geom) > 0 {
		label := "processed"
		if logo != nil {
			label = "cropped"
		}
		chains = append(chains, "["+cur+"]"+strings.Join(geom, ",")+"["+label+"]")
		cur = label
	}

	if logo != nil {
		chains = append(chains, fmt.Sprintf("[1:v]scale=%d:-1[logo]", logo.Size))
		chains = append(chains, fmt.Sprintf("[%s][logo]overlay=%d:%d[with_logo]", cur, logo.X, logo.Y))
		cur = "with_logo"
	}

	if len(texts) > 0 {
		parts := make([]string, len(texts))
		for i := range texts {
			parts[i] = drawtextExpr(texts[i])
		}
		chains = append(chains, "["+cur+"]"+strings.Join(parts, ",")+"[final]")
		cur = "final"
	}

	return strings.Join(chains, ";"), "[" + cur + "]"
}

func drawtextExpr(t TextStage) string {
	size := t.FontSize
	yExpr := "(h-text_h)*0.7"
	if t.Multiline {
		size = int(float64(size) * 0.85)
		yExpr = "(h-text_h)*0.65"
	}

	var b strings.Builder
	b.WriteString("drawtext=text='")
	b.WriteString(escapeDrawText(t.Text))
	b.WriteString("'")
	b.WriteString(":fontsize=")
	b.WriteString(strconv.Itoa(size))
	b.WriteString(":fontcolor=")
	b.WriteString(t.FontColor)
	b.WriteString(":borderw=")
	b.WriteString(strconv.Itoa(t.OutlineWidth))
	b.WriteString(":bordercolor=")
	b.WriteString(t.OutlineColor)
	b.WriteString(":x=(w-text_w)/2")
	b.WriteString(":y=")
	b.WriteString(yExpr)
	b.WriteString(":box=1:boxcolor=black@0.4:boxborderw=8")
	fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", fmtTime(t.Start), fmtTime(t.End))

	if t.Fade > 0 {
		fadeInEnd := t.Start + t.Fade
		fadeOutStart := t.End - t.Fade
		fmt.Fprintf(&b, ":alpha='if(lt(t,%s),(t-%s)/%s,1)*if(gt(t,%s),(%s-t)/%s,1)'",
			fmtTime(fadeInEnd), fmtTime(t.Start), fmtTime(t.Fade),
			fmtTime(fadeOutStart), fmtTime(t.End), fmtTime(t.Fade))
	}

	return b.String()
}

// fmtTime renders seconds with one decimal, the precision drawtext time
// predicates are built with.
func fmtTime(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 1, 64)
}

func escapeDrawText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ":", `\:`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
