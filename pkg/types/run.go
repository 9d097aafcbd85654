// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RunStage identifies one stage of a pipeline run. Stages advance strictly
// in sequence; any stage may transition to StageFailed. StagePersisted and
// StageFailed are terminal.
type RunStage string

const (
	StagePlanning      RunStage = "PLANNING"
	StageDataGathering RunStage = "DATA_GATHERING"
	StageSelection     RunStage = "SELECTION"
	StageRetrieval     RunStage = "RETRIEVAL"
	StageSynthesis     RunStage = "SYNTHESIS"
	StagePersisted     RunStage = "PERSISTED"
	StageFailed        RunStage = "FAILED"
)

// Terminal reports whether the stage ends a run.
func (s RunStage) Terminal() bool {
	return s == StagePersisted || s == StageFailed
}
