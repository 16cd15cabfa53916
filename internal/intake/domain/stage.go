// Package domain holds the types shared by the complaint intake conversation.
package domain

// Stage is a position in the intake workflow.
type Stage string

const (
	StageInit         Stage = "init"
	StageDescription  Stage = "description"
	StageLocation     Stage = "location"
	StageMediaUpload  Stage = "media_upload"
	StageConfirmation Stage = "confirmation"
	// StageCompleted is transient: the complaint is persisted and the
	// session is reset to StageInit in the same step.
	StageCompleted Stage = "completed"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageInit, StageDescription, StageLocation, StageMediaUpload, StageConfirmation, StageCompleted:
		return true
	}
	return false
}

func (s Stage) String() string { return string(s) }
