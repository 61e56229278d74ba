package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/reelkit/reelcut/internal/types"
)

// stitchOutro appends the configured outro to a freshly rendered video and
// returns the final path. Every failure here is soft: the rendered main
// video is already a complete deliverable, so problems log a warning and
// the pre-outro path is returned unchanged.
func (u *Usecase) stitchOutro(ctx context.Context, log hclog.Logger, renderedPath string) string {
	cfg := u.d.Config

	if _, err := os.Stat(cfg.Outro.Path); err != nil {
		log.Warn("outro enabled but asset missing, keeping main output", "path", cfg.Outro.Path)
		return renderedPath
	}

	stitchCtx, cancel := timeoutCtx(ctx, cfg.Processing.OutroTimeoutSec)
	defer cancel()

	// The rendered file is probed rather than trusting configuration: on
	// the stream-copy path the output keeps the source frame rate, not the
	// configured one.
	mainInfo, err := u.d.Engine.Probe(stitchCtx, renderedPath)
	if err != nil {
		log.Warn("could not probe rendered output, keeping main output", "error", err)
		return renderedPath
	}
	outroInfo, err := u.d.Engine.Probe(stitchCtx, cfg.Outro.Path)
	if err != nil {
		log.Warn("could not probe outro asset, keeping main output", "error", err)
		return renderedPath
	}

	base := strings.TrimSuffix(filepath.Base(renderedPath), filepath.Ext(renderedPath))
	tempOutro := filepath.Join(cfg.Folders.Temp, "temp_outro_"+base+".mp4")
	finalPath := filepath.Join(filepath.Dir(renderedPath), base+"_with_outro.mp4")

	err = u.d.Engine.NormalizeOutro(stitchCtx, types.OutroNormalizeJob{
		OutroPath:  cfg.Outro.Path,
		FPS:        mainInfo.FPS,
		Duration:   outroInfo.Duration,
		SynthAudio: !outroInfo.HasAudio,
		OutputPath: tempOutro,
	})
	if err != nil {
		log.Warn("outro normalization failed, keeping main output", "error", err)
		return renderedPath
	}

	err = u.d.Engine.Concat(stitchCtx, types.ConcatJob{
		MainPath:   renderedPath,
		OutroPath:  tempOutro,
		Bitrate:    cfg.Video.Bitrate,
		CRF:        cfg.Video.CRF,
		OutputPath: finalPath,
	})
	if err != nil {
		// Leave the normalized intermediate behind for diagnosis.
		log.Warn("outro concatenation failed, keeping main output", "error", err)
		return renderedPath
	}

	if err := os.Remove(tempOutro); err != nil {
		log.Warn("could not remove outro intermediate", "path", tempOutro, "error", err)
	}
	if cfg.Processing.DeleteTempFiles {
		if err := os.Remove(renderedPath); err != nil {
			log.Warn("could not remove pre-outro output", "path", renderedPath, "error", err)
		}
	}

	log.Info("outro appended", "output", finalPath)
	return finalPath
}
