package domain

// Severity orders validation findings. Only error-severity findings make a
// document invalid; warnings and informational notes never block saving.
type Severity string

// Validation severities in ascending order of impact.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityInfo:    0,
	SeverityWarning: 1,
	SeverityError:   2,
}

// Rank returns the ordering weight of a severity. Unknown severities rank
// highest so a misbehaving producer fails closed rather than open.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return severityRank[SeverityError] + 1
}

// ErrorKind categorizes validation findings per the error taxonomy.
type ErrorKind string

// Validation error kinds. These are accumulated and returned as data, never
// raised as Go errors, so callers can present every problem at once.
const (
	// KindStructural marks a schema shape or type violation.
	KindStructural ErrorKind = "structural"
	// KindReferential marks a dangling or missing cross-reference.
	KindReferential ErrorKind = "referential"
	// KindUniqueness marks a duplicate identifier or hardware channel.
	KindUniqueness ErrorKind = "uniqueness"
	// KindCompletion marks a gap or missing entry in a channel map.
	KindCompletion ErrorKind = "completion"
	// KindCrossReference marks a non-blocking inheritance-level mismatch.
	KindCrossReference ErrorKind = "cross_reference"
)

// ValidationError is one addressable validation finding. Path uses dot and
// bracket addressing into the effective-day document, for example
// "tasks[1].camera_ids[0]" or "ntrode_channel_maps[2].map", so a consumer can
// locate the offending field without the core knowing anything about its
// presentation.
type ValidationError struct {
	Kind     ErrorKind `json:"kind"`
	Path     string    `json:"path"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// ValidationResult aggregates findings from the validation pipeline.
type ValidationResult struct {
	Errors []ValidationError `json:"errors"`
}

// Merge appends findings from another result.
func (r *ValidationResult) Merge(other ValidationResult) {
	if len(other.Errors) == 0 {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// IsValid reports whether the result contains no findings at error severity
// or above. It is derived from the error set alone; there is deliberately no
// separately tracked validity flag to drift out of sync with the findings.
// Rank comparison keeps unknown severities failing closed here just as they
// do for BlocksExport.
func (r ValidationResult) IsValid() bool {
	for _, e := range r.Errors {
		if e.Severity.Rank() >= SeverityError.Rank() {
			return false
		}
	}
	return true
}

// BlocksExport reports whether the result contains any finding at warning
// severity or above. Warnings never block saving but do block final export.
func (r ValidationResult) BlocksExport() bool {
	for _, e := range r.Errors {
		if e.Severity.Rank() >= SeverityWarning.Rank() {
			return true
		}
	}
	return false
}
