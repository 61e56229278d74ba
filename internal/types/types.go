package types

// VideoInfo is the probed shape of a media file. It is read once per
// processing call and never mutated afterwards.
type VideoInfo struct {
	Path     string
	Width    int
	Height   int
	Duration float64
	FPS      float64
	Codec    string
	HasAudio bool
}

// CropWindow reframes the source to the target aspect ratio. Offsets
// center the window within the source frame.
type CropWindow struct {
	Width   int
	Height  int
	XOffset int
	YOffset int
}

// IsFullFrame reports whether the window covers the whole source frame,
// i.e. cropping would be a no-op.
func (c CropWindow) IsFullFrame(srcW, srcH int) bool {
	return c.XOffset == 0 && c.YOffset == 0 && c.Width == srcW && c.Height == srcH
}

// Overlay is one compiled caption: validated, clamped against the video
// duration, and wrapped to at most two lines.
type Overlay struct {
	StartTime float64
	EndTime   float64
	Text      string
	Multiline bool
	FadeDur   float64
}

type EncodeParams struct {
	VideoCodec string
	AudioCodec string
	Bitrate    string
	CRF        int
	FPS        int
}

// RenderJob is one ffmpeg invocation. An empty FilterComplex means the
// engine must stream-copy both video and audio instead of re-encoding.
type RenderJob struct {
	InputPath     string
	LogoPath      string
	FilterComplex string
	FinalLabel    string
	MapAudio      bool
	Encode        EncodeParams
	OutputPath    string
}

// OutroNormalizeJob re-encodes the outro asset so its format matches the
// rendered main clip. SynthAudio asks for a silent stereo track when the
// outro has no audio of its own.
type OutroNormalizeJob struct {
	OutroPath  string
	FPS        float64
	Duration   float64
	SynthAudio bool
	OutputPath string
}

type ConcatJob struct {
	MainPath   string
	OutroPath  string
	Bitrate    string
	CRF        int
	OutputPath string
}
