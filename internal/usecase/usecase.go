package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/reelkit/reelcut/internal/config"
	"github.com/reelkit/reelcut/internal/domain/filtergraph"
	"github.com/reelkit/reelcut/internal/domain/geometry"
	"github.com/reelkit/reelcut/internal/domain/overlay"
	"github.com/reelkit/reelcut/internal/ports"
	"github.com/reelkit/reelcut/internal/types"
)

type Deps struct {
	Engine      ports.MediaEngine
	Transcriber ports.Transcriber // nil disables transcription
	Analyzer    ports.Analyzer    // nil disables analysis and captions
	Ledger      ports.Ledger      // nil disables job tracking
	Config      config.Config
	Logger      hclog.Logger
}

type Usecase struct {
	d    Deps
	slot chan struct{}
}

func New(d Deps) *Usecase {
	if d.Logger == nil {
		d.Logger = hclog.NewNullLogger()
	}
	return &Usecase{d: d, slot: make(chan struct{}, 1)}
}

type Input struct {
	VideoPath string
	// Instructions, when non-nil, bypass transcription and analysis. An
	// empty non-nil slice explicitly requests a caption-free video.
	Instructions []overlay.RawInstruction
}

type Result struct {
	OutputPath    string
	CaptionPath   string
	OverlaySource overlay.Source
	OverlayCount  int
	StreamCopy    bool
	Elapsed       time.Duration
}

// ProcessVideo runs one video through the full pipeline: probe, optional
// transcription and analysis, geometry, overlay compilation, render, then
// the optional outro stitch. At most one video is in flight per process;
// concurrent calls fail fast with ErrBusy.
func (u *Usecase) ProcessVideo(ctx context.Context, in Input) (Result, error) {
	select {
	case u.slot <- struct{}{}:
		defer func() { <-u.slot }()
	default:
		return Result{}, ErrBusy
	}

	started := time.Now()
	log := u.d.Logger.With("video", filepath.Base(in.VideoPath))
	log.Info("processing started")

	jobID := uuid.NewString()
	if u.d.Ledger != nil {
		if err := u.d.Ledger.CreateJob(ctx, jobID, in.VideoPath); err != nil {
			log.Warn("job ledger unavailable", "error", err)
		}
	}

	res, err := u.process(ctx, log, in)

	// Temp artifacts go regardless of outcome so a failed run does not
	// poison the next one.
	if u.d.Config.Processing.DeleteTempFiles {
		u.cleanupTemp(log, in.VideoPath)
	}

	if u.d.Ledger != nil {
		// Record the outcome even when ctx was canceled mid-run.
		bg := context.Background()
		if err != nil {
			stage := ""
			var se *StageError
			if errors.As(err, &se) {
				stage = string(se.Stage)
			}
			if lerr := u.d.Ledger.MarkFailed(bg, jobID, stage, err.Error()); lerr != nil {
				log.Warn("could not record job failure", "error", lerr)
			}
		} else if lerr := u.d.Ledger.MarkDone(bg, jobID, res.OutputPath); lerr != nil {
			log.Warn("could not record job completion", "error", lerr)
		}
	}

	if err != nil {
		log.Error("processing failed", "error", err)
		return Result{}, err
	}

	res.Elapsed = time.Since(started)
	log.Info("processing complete", "output", res.OutputPath, "elapsed", res.Elapsed.Round(time.Millisecond).String())
	return res, nil
}

func (u *Usecase) process(ctx context.Context, log hclog.Logger, in Input) (Result, error) {
	cfg := u.d.Config

	probeCtx, cancel := timeoutCtx(ctx, cfg.Processing.ProbeTimeoutSec)
	info, err := u.d.Engine.Probe(probeCtx, in.VideoPath)
	cancel()
	if err != nil {
		return Result{}, stageErr(StageProbe, err)
	}
	log.Info("probed source",
		"resolution", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"duration_sec", info.Duration,
		"fps", info.FPS,
		"codec", info.Codec,
		"audio", info.HasAudio)

	raws := in.Instructions
	captionPath := ""
	if raws == nil && u.d.Transcriber != nil && u.d.Analyzer != nil {
		transcript, err := u.transcribe(ctx, log, in.VideoPath)
		if err != nil {
			return Result{}, stageErr(StageTranscribe, err)
		}
		if strings.TrimSpace(transcript) == "" {
			log.Warn("transcript is empty, skipping analysis")
		} else {
			raws = u.analyzeOverlays(ctx, log, transcript)
			captionPath = u.generateCaption(ctx, log, in.VideoPath, transcript)
		}
	}

	ratio, err := cfg.TargetRatio()
	if err != nil {
		return Result{}, stageErr(StageGeometry, err)
	}
	window, err := geometry.PlanCrop(info.Width, info.Height, ratio)
	if err != nil {
		return Result{}, stageErr(StageGeometry, err)
	}

	compiled := overlay.Compile(raws, info.Duration, overlay.Options{
		MaxCharsPerLine: cfg.Overlays.MaxCharsPerLine,
		FadeDuration:    cfg.Overlays.FadeDuration,
	})
	for _, rej := range compiled.Rejections {
		log.Warn("discarded overlay instruction", "index", rej.Index, "reason", rej.Reason)
	}
	log.Info("compiled overlay timeline", "source", compiled.Source.String(), "overlays", len(compiled.Overlays))

	if len(raws) > 0 {
		if err := u.saveOverlaySidecar(in.VideoPath, compiled); err != nil {
			log.Warn("could not save overlay sidecar", "error", err)
		}
	}

	outW, outH, err := cfg.OutputResolution()
	if err != nil {
		return Result{}, stageErr(StageGeometry, err)
	}

	var logo *filtergraph.LogoPlacement
	logoPath := ""
	if cfg.Logo.Enabled {
		if _, statErr := os.Stat(cfg.Logo.Path); statErr != nil {
			log.Warn("logo enabled but asset missing, skipping watermark", "path", cfg.Logo.Path)
		} else {
			logoPath = cfg.Logo.Path
			logo = &filtergraph.LogoPlacement{
				Position:    cfg.Logo.Position,
				SizePercent: cfg.Logo.SizePercent,
				Margin:      cfg.Logo.Margin,
			}
		}
	}

	graph := filtergraph.Build(filtergraph.Input{
		Window:   window,
		SrcW:     info.Width,
		SrcH:     info.Height,
		OutW:     outW,
		OutH:     outH,
		Logo:     logo,
		Overlays: compiled.Overlays,
		Style: filtergraph.TextStyle{
			FontSize:     cfg.Overlays.FontSize,
			FontColor:    cfg.Overlays.FontColor,
			OutlineWidth: cfg.Overlays.OutlineWidth,
			OutlineColor: cfg.Overlays.OutlineColor,
		},
	})
	fc, finalLabel := graph.FilterComplex()

	outPath := filepath.Join(cfg.Folders.Output,
		fmt.Sprintf("%s_processed_%s.mp4", stemOf(in.VideoPath), time.Now().Format("20060102_150405")))

	job := types.RenderJob{
		InputPath:     in.VideoPath,
		FilterComplex: fc,
		FinalLabel:    finalLabel,
		MapAudio:      info.HasAudio,
		Encode: types.EncodeParams{
			VideoCodec: cfg.Video.VideoCodec,
			AudioCodec: cfg.Video.AudioCodec,
			Bitrate:    cfg.Video.Bitrate,
			CRF:        cfg.Video.CRF,
			FPS:        cfg.Video.OutputFPS,
		},
		OutputPath: outPath,
	}
	if graph.HasLogo() {
		job.LogoPath = logoPath
	}

	streamCopy := graph.Empty()
	if streamCopy {
		log.Info("no transform stages apply, stream copying")
	}

	renderCtx, cancel := timeoutCtx(ctx, cfg.Processing.RenderTimeoutSec)
	err = u.d.Engine.Render(renderCtx, job)
	cancel()
	if err != nil {
		return Result{}, stageErr(StageRender, err)
	}
	log.Info("render complete", "output", outPath)

	finalPath := outPath
	if cfg.Outro.Enabled {
		finalPath = u.stitchOutro(ctx, log, outPath)
	}

	return Result{
		OutputPath:    finalPath,
		CaptionPath:   captionPath,
		OverlaySource: compiled.Source,
		OverlayCount:  len(compiled.Overlays),
		StreamCopy:    streamCopy,
	}, nil
}

// BatchResult tallies one batch run. Outputs maps each input path to its
// final output, empty on failure.
type BatchResult struct {
	Succeeded int
	Failed    int
	Skipped   int
	Outputs   map[string]string
}

// ProcessBatch runs videos sequentially in the order supplied. A failed
// video is logged and counted, never aborting the rest; only context
// cancellation stops the batch early.
func (u *Usecase) ProcessBatch(ctx context.Context, videoPaths []string) (BatchResult, error) {
	res := BatchResult{Outputs: make(map[string]string, len(videoPaths))}

	for i, path := range videoPaths {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		log := u.d.Logger.With("video", filepath.Base(path))
		if u.d.Ledger != nil {
			if done, err := u.d.Ledger.IsDone(ctx, path); err == nil && done {
				log.Info("already processed, skipping")
				res.Skipped++
				continue
			}
		}

		u.d.Logger.Info("processing batch item", "index", i+1, "total", len(videoPaths))
		out, err := u.ProcessVideo(ctx, Input{VideoPath: path})
		if err != nil {
			res.Failed++
			res.Outputs[path] = ""
			continue
		}
		res.Succeeded++
		res.Outputs[path] = out.OutputPath
	}

	u.d.Logger.Info("batch complete",
		"succeeded", res.Succeeded, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

func (u *Usecase) transcribe(ctx context.Context, log hclog.Logger, videoPath string) (string, error) {
	stem := stemOf(videoPath)
	wavPath := filepath.Join(u.d.Config.Folders.Temp, stem+"_audio.wav")
	if err := u.d.Engine.ExtractAudioMono16k(ctx, videoPath, wavPath); err != nil {
		return "", err
	}

	transcript, err := u.d.Transcriber.Transcribe(ctx, wavPath, u.d.Config.Folders.Temp)
	if err != nil {
		return "", err
	}

	txtPath := filepath.Join(u.d.Config.Folders.Temp, stem+"_transcript.txt")
	if err := os.WriteFile(txtPath, []byte(transcript), 0o644); err != nil {
		log.Warn("could not save transcript", "error", err)
	}
	log.Info("transcription complete", "words", len(strings.Fields(transcript)))
	return transcript, nil
}

// analyzeOverlays never fails: an unreachable analyzer degrades to the
// single default instruction so the video still ships with a caption.
func (u *Usecase) analyzeOverlays(ctx context.Context, log hclog.Logger, transcript string) []overlay.RawInstruction {
	raws, err := u.d.Analyzer.Overlays(ctx, transcript)
	if err != nil {
		log.Warn("content analysis failed, using fallback overlay", "error", err)
		return []overlay.RawInstruction{{Timestamp: 3.0, Text: "💰 Watch for tips!", Duration: 3.0}}
	}
	log.Info("content analysis complete", "instructions", len(raws))
	return raws
}

func (u *Usecase) generateCaption(ctx context.Context, log hclog.Logger, videoPath, transcript string) string {
	caption, err := u.d.Analyzer.Caption(ctx, transcript)
	if err != nil {
		log.Warn("caption generation failed", "error", err)
		return ""
	}
	if strings.TrimSpace(caption) == "" {
		return ""
	}

	dir := u.d.Config.Folders.Captions
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("could not create captions folder", "error", err)
		return ""
	}
	path := filepath.Join(dir, stemOf(videoPath)+"_caption.txt")
	if err := os.WriteFile(path, []byte(caption), 0o644); err != nil {
		log.Warn("could not save caption", "error", err)
		return ""
	}
	log.Info("caption saved", "path", path, "chars", len([]rune(caption)))
	return path
}

type sidecarOverlay struct {
	Timestamp float64 `json:"timestamp"`
	Text      string  `json:"text"`
	Duration  float64 `json:"duration"`
}

type sidecarFile struct {
	Source   string           `json:"source"`
	Overlays []sidecarOverlay `json:"overlays"`
}

// saveOverlaySidecar writes the compiled timeline next to the other temp
// artifacts so users can inspect what will be burned in.
func (u *Usecase) saveOverlaySidecar(videoPath string, compiled overlay.Result) error {
	sc := sidecarFile{
		Source:   compiled.Source.String(),
		Overlays: make([]sidecarOverlay, 0, len(compiled.Overlays)),
	}
	for _, ov := range compiled.Overlays {
		sc.Overlays = append(sc.Overlays, sidecarOverlay{
			Timestamp: ov.StartTime,
			Text:      ov.Text,
			Duration:  ov.EndTime - ov.StartTime,
		})
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(u.d.Config.Folders.Temp, stemOf(videoPath)+"_overlays.json")
	return os.WriteFile(path, data, 0o644)
}

func (u *Usecase) cleanupTemp(log hclog.Logger, videoPath string) {
	stem := stemOf(videoPath)
	patterns := []string{
		stem + "_*.json",
		stem + "_*.txt",
		stem + "_audio.wav",
		"concat_list.txt",
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(u.d.Config.Folders.Temp, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				if !os.IsNotExist(err) {
					log.Warn("could not remove temp file", "path", path, "error", err)
				}
				continue
			}
			log.Debug("removed temp file", "path", path)
		}
	}
}

func timeoutCtx(ctx context.Context, sec int) (context.Context, context.CancelFunc) {
	if sec <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(sec)*time.Second)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
