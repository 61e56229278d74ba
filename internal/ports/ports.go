package ports

import (
	"context"

	"github.com/reelkit/reelcut/internal/domain/overlay"
	"github.com/reelkit/reelcut/internal/types"
)

type MediaEngine interface {
	Probe(ctx context.Context, path string) (types.VideoInfo, error)
	Render(ctx context.Context, job types.RenderJob) error
	NormalizeOutro(ctx context.Context, job types.OutroNormalizeJob) error
	Concat(ctx context.Context, job types.ConcatJob) error
	ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error
	Version(ctx context.Context) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, workDir string) (string, error)
}

type Analyzer interface {
	Overlays(ctx context.Context, transcript string) ([]overlay.RawInstruction, error)
	Caption(ctx context.Context, transcript string) (string, error)
}

// Ledger records processing jobs so batches can resume and history can be
// inspected later.
type Ledger interface {
	CreateJob(ctx context.Context, id, inputPath string) error
	MarkDone(ctx context.Context, id, outputPath string) error
	MarkFailed(ctx context.Context, id, stage, errMsg string) error
	IsDone(ctx context.Context, inputPath string) (bool, error)
}
