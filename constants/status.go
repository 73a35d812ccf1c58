package constants

// BadgeState is the canonical freshness state shown for one student's comment.
// It is derived from the entity and registry state, never stored.
type BadgeState string

// Stable values (store these exact strings when serializing UI state).
const (
	BadgeNone      BadgeState = "NONE"      // no machine-generated output
	BadgePending   BadgeState = "PENDING"   // a generation token is registered
	BadgeGenerated BadgeState = "GENERATED" // output fresh relative to its snapshot
	BadgeModified  BadgeState = "MODIFIED"  // inputs drifted since generation
	BadgeValid     BadgeState = "VALID"     // manually written output, no snapshot
	BadgeSaved     BadgeState = "SAVED"     // transient, just after a manual edit
	BadgeError     BadgeState = "ERROR"     // last generation attempt failed
)

// JobStatus is the canonical status for persisted batch runs.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusDone    JobStatus = "DONE"
	JobStatusAborted JobStatus = "ABORTED"
	JobStatusFailed  JobStatus = "FAILED"
)
