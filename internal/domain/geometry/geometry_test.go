package geometry

import (
	"testing"

	"github.com/reelkit/reelcut/internal/types"
)

func TestPlanCrop_Table(t *testing.T) {
	ratio := 9.0 / 16.0

	tests := []struct {
		name string
		w, h int
		want types.CropWindow
	}{
		{
			name: "full hd landscape",
			w:    1920, h: 1080,
			want: types.CropWindow{Width: 607, Height: 1080, XOffset: 656, YOffset: 0},
		},
		{
			name: "4k landscape",
			w:    3840, h: 2160,
			want: types.CropWindow{Width: 1215, Height: 2160, XOffset: 1312, YOffset: 0},
		},
		{
			name: "square",
			w:    1000, h: 1000,
			want: types.CropWindow{Width: 562, Height: 1000, XOffset: 219, YOffset: 0},
		},
		{
			name: "too tall",
			w:    1080, h: 2400,
			want: types.CropWindow{Width: 1080, Height: 1920, XOffset: 0, YOffset: 240},
		},
		{
			name: "already vertical",
			w:    1080, h: 1920,
			want: types.CropWindow{Width: 1080, Height: 1920, XOffset: 0, YOffset: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanCrop(tt.w, tt.h, ratio)
			if err != nil {
				t.Fatalf("plan crop: %v", err)
			}
			if got != tt.want {
				t.Fatalf("PlanCrop(%d, %d) = %+v, want %+v", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestPlanCrop_CenteredAndInBounds(t *testing.T) {
	ratio := 9.0 / 16.0
	dims := []struct{ w, h int }{
		{1920, 1080}, {1280, 720}, {640, 480}, {720, 1280}, {1080, 1080}, {999, 333},
	}
	for _, d := range dims {
		win, err := PlanCrop(d.w, d.h, ratio)
		if err != nil {
			t.Fatalf("plan crop %dx%d: %v", d.w, d.h, err)
		}
		if win.Width <= 0 || win.Height <= 0 {
			t.Fatalf("empty window for %dx%d: %+v", d.w, d.h, win)
		}
		if win.XOffset+win.Width > d.w || win.YOffset+win.Height > d.h {
			t.Fatalf("window out of bounds for %dx%d: %+v", d.w, d.h, win)
		}
		if win.XOffset != (d.w-win.Width)/2 || win.YOffset != (d.h-win.Height)/2 {
			t.Fatalf("window not centered for %dx%d: %+v", d.w, d.h, win)
		}
	}
}

func TestPlanCrop_Deterministic(t *testing.T) {
	a, err := PlanCrop(1920, 1080, 9.0/16.0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PlanCrop(1920, 1080, 9.0/16.0)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected identical windows, got %+v and %+v", a, b)
	}
}

func TestPlanCrop_FullFrameWhenMatching(t *testing.T) {
	win, err := PlanCrop(1080, 1920, 9.0/16.0)
	if err != nil {
		t.Fatal(err)
	}
	if !win.IsFullFrame(1080, 1920) {
		t.Fatalf("expected full-frame window, got %+v", win)
	}
}

func TestPlanCrop_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name  string
		w, h  int
		ratio float64
	}{
		{"zero width", 0, 1080, 9.0 / 16.0},
		{"zero height", 1920, 0, 9.0 / 16.0},
		{"negative width", -10, 1080, 9.0 / 16.0},
		{"zero ratio", 1920, 1080, 0},
		{"negative ratio", 1920, 1080, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PlanCrop(tc.w, tc.h, tc.ratio); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
