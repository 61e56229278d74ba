package whispercpp

import "testing"

func TestParseTranscript(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			"joins and trims segments",
			`{"segments":[{"text":" Markets opened lower today. "},{"text":"  Here is what that means."}]}`,
			"Markets opened lower today. Here is what that means.",
			false,
		},
		{
			"skips blank segments",
			`{"segments":[{"text":"First."},{"text":"   "},{"text":"Second."}]}`,
			"First. Second.",
			false,
		},
		{"no segments", `{"segments":[]}`, "", false},
		{"bad json", `garbage`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranscript([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
