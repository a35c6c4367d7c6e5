package types

// OutcomeStatus is the result of exporting a single .paper file.
type OutcomeStatus string

const (
	OutcomeConverted OutcomeStatus = "converted"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome records what happened to one discovered source file. Outcomes
// live only for the duration of a run.
type Outcome struct {
	// Source is the discovered .paper path.
	Source string `json:"source" yaml:"source"`

	// RemotePath is the Dropbox path requested, empty when skipped.
	RemotePath string `json:"remote_path,omitempty" yaml:"remote_path,omitempty"`

	// Output is the written file, empty unless converted.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	Status OutcomeStatus `json:"status" yaml:"status"`

	// Reason explains a skip or failure.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
