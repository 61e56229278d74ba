package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/reelkit/reelcut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	return parseProbe(path, b)
}

func (a *Adapter) Render(ctx context.Context, job types.RenderJob) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, renderArgs(job)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) NormalizeOutro(ctx context.Context, job types.OutroNormalizeJob) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, normalizeArgs(job)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg normalize outro: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) Concat(ctx context.Context, job types.ConcatJob) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, concatArgs(job)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// Version reports the ffmpeg version line and verifies both configured
// tools are runnable.
func (a *Adapter) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg, "-version")
	b, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w\n%s", err, string(b))
	}
	if pb, err := exec.CommandContext(ctx, a.ffprobe, "-version").CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffprobe version: %w\n%s", err, string(pb))
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimSpace(line), nil
}

// renderArgs builds the full invocation for one render job. An empty filter
// graph means stream copy: both streams pass through untouched and no encode
// parameters are appended.
func renderArgs(job types.RenderJob) []string {
	args := []string{"-y", "-i", job.InputPath}
	if job.LogoPath != "" {
		args = append(args, "-i", job.LogoPath)
	}

	if job.FilterComplex == "" {
		args = append(args, "-c:v", "copy", "-c:a", "copy", "-movflags", "+faststart")
		return append(args, job.OutputPath)
	}

	args = append(args, "-filter_complex", job.FilterComplex, "-map", job.FinalLabel)
	if job.MapAudio {
		args = append(args, "-map", "0:a")
	}
	args = append(args,
		"-c:v", job.Encode.VideoCodec,
		"-c:a", job.Encode.AudioCodec,
		"-b:v", job.Encode.Bitrate,
		"-crf", strconv.Itoa(job.Encode.CRF),
		"-r", strconv.Itoa(job.Encode.FPS),
		"-movflags", "+faststart",
	)
	return append(args, job.OutputPath)
}

// normalizeArgs re-encodes the outro so pixel format, SAR, frame rate and
// audio layout all match the rendered main clip. When the outro carries no
// audio a silent stereo track is synthesized from anullsrc.
func normalizeArgs(job types.OutroNormalizeJob) []string {
	args := []string{"-y", "-i", job.OutroPath}
	if job.SynthAudio {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=48000")
	}
	args = append(args,
		"-vf", "format=yuv420p,setsar=1:1",
		"-r", fmtFPS(job.FPS),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", "128k",
		"-pix_fmt", "yuv420p",
		"-profile:v", "high",
		"-level", "4.0",
		"-map", "0:v:0",
	)
	if job.SynthAudio {
		args = append(args, "-map", "1:a:0", "-shortest")
	} else {
		args = append(args, "-map", "0:a:0")
	}
	return append(args, "-t", fmtSeconds(job.Duration), job.OutputPath)
}

func concatArgs(job types.ConcatJob) []string {
	return []string{
		"-y",
		"-i", job.MainPath,
		"-i", job.OutroPath,
		"-filter_complex", "[0:v][0:a][1:v][1:a]concat=n=2:v=1:a=1[outv][outa]",
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", job.Bitrate,
		"-crf", strconv.Itoa(job.CRF),
		"-movflags", "+faststart",
		job.OutputPath,
	}
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Duration   string `json:"duration"`
	RFrameRate string `json:"r_frame_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(path string, raw []byte) (types.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var video *probeStream
	hasAudio := false
	for i := range out.Streams {
		switch out.Streams[i].CodecType {
		case "video":
			if video == nil {
				video = &out.Streams[i]
			}
		case "audio":
			hasAudio = true
		}
	}
	if video == nil {
		return types.VideoInfo{}, errors.New("no video stream found")
	}

	// Some containers report duration per stream, some only per format.
	dur, err := strconv.ParseFloat(video.Duration, 64)
	if err != nil {
		dur, err = strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return types.VideoInfo{}, fmt.Errorf("no parsable duration for %s", path)
		}
	}

	fps, err := parseRational(video.RFrameRate)
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse frame rate %q: %w", video.RFrameRate, err)
	}

	return types.VideoInfo{
		Path:     path,
		Width:    video.Width,
		Height:   video.Height,
		Duration: dur,
		FPS:      fps,
		Codec:    video.CodecName,
		HasAudio: hasAudio,
	}, nil
}

func parseRational(s string) (float64, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return strconv.ParseFloat(s, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, errors.New("zero denominator")
	}
	return n / d, nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func fmtFPS(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
