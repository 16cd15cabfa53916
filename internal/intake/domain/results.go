package domain

// Source records which path produced a result.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

// ClassificationResult is the routing decision for a description.
type ClassificationResult struct {
	Department    Department
	SeverityScore float64
	NeedsImage    bool
	Reasoning     string
	Source        Source
}

// ValidationResult is the verdict of one evidence or location check.
type ValidationResult struct {
	Passed bool
	Reason string
	Source Source
}

// Enhancement is the professional rewrite of a complaint.
type Enhancement struct {
	Title       string
	Description string
	Source      Source
}
