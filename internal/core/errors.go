package core

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned by LLM clients when the service replies without content
var ErrEmptyResponse = errors.New("empty response from LLM")

// Stages at which scoring a message can fail
const (
	StageScore     = "score"
	StageResponse  = "response"
	StageCancelled = "cancelled"
	StagePanic     = "panic"
)

// ScoringFailure reports a failed scoring call for one message
type ScoringFailure struct {
	Index int
	Stage string
	Err   error
}

func (e *ScoringFailure) Error() string {
	return fmt.Sprintf("scoring message %d: %v", e.Index, e.Err)
}

func (e *ScoringFailure) Unwrap() error {
	return e.Err
}

// BatchIOFailure reports a failed persistence step of a run
type BatchIOFailure struct {
	Op  string
	Err error
}

func (e *BatchIOFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BatchIOFailure) Unwrap() error {
	return e.Err
}
