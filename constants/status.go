package constants

// Stage is the state of a single pipeline run.
type Stage string

// Pipeline runs move linearly through these stages; any stage may jump to StageError.
const (
	StageExtractingText       Stage = "EXTRACTING_TEXT"
	StageExtractingStructured Stage = "EXTRACTING_STRUCTURED"
	StageValidating           Stage = "VALIDATING"
	StageScoring              Stage = "SCORING"
	StageDone                 Stage = "DONE"
	StageError                Stage = "ERROR"
)

// Result envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
