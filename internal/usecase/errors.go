package usecase

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a second video is submitted while one is still
// rendering. Processing is strictly single-flight per process.
var ErrBusy = errors.New("another video is already being processed")

// Stage names the pipeline step a fatal error came from. Soft steps (outro,
// cleanup) degrade with a logged warning and never surface here.
type Stage string

const (
	StageProbe      Stage = "probe"
	StageTranscribe Stage = "transcribe"
	StageGeometry   Stage = "geometry"
	StageRender     Stage = "render"
)

// StageError wraps a fatal pipeline error with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
