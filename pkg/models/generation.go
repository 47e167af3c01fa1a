package models

import "time"

// DocumentType names the tailored document being produced. Unknown values are
// passed through to the prompt verbatim.
type DocumentType string

const (
	DocumentCV          DocumentType = "cv"
	DocumentCoverLetter DocumentType = "cover_letter"
)

// Artifact is one reusable unit of candidate material (a project write-up,
// a role summary, a publication) with its declared skills.
type Artifact struct {
	ID     string   `json:"id" yaml:"id"`
	Title  string   `json:"title" yaml:"title"`
	Text   string   `json:"text" yaml:"text"`
	Skills []string `json:"skills,omitempty" yaml:"skills"`
}

// GenerationRequest asks the pipeline to tailor one document against one job
// posting. Artifacts may be empty, in which case the pipeline loads the
// user's artifact set from persistence.
type GenerationRequest struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Tier      string       `json:"tier"`
	Type      DocumentType `json:"type"`
	JobText   string       `json:"job_text"`
	Artifacts []Artifact   `json:"artifacts,omitempty"`
}

// Section is one heading/body block of generated content.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// GeneratedContent is the structured draft a generation model returns: the
// tailored sections plus the requirements it parsed out of the posting.
type GeneratedContent struct {
	Summary      string    `json:"summary"`
	Sections     []Section `json:"sections"`
	Requirements []string  `json:"requirements"`
}

// GenerationStatus is the pipeline state of one request.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// FailureKind classifies why a request failed.
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureProviderUnavailable FailureKind = "provider_unavailable"
	FailureBudgetExceeded      FailureKind = "budget_exceeded"
	FailureProviderCall        FailureKind = "provider_call_failed"
	FailureInvalidInput        FailureKind = "invalid_input"
	FailureCacheInconsistency  FailureKind = "cache_inconsistency"
)

// RankedArtifact pairs an artifact with its relevance to the job posting.
type RankedArtifact struct {
	ArtifactID string  `json:"artifact_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
}

// GenerationResult is the full outcome of one request. A result reaches
// exactly one terminal status; Complete and Fail are no-ops once terminal.
type GenerationResult struct {
	RequestID       string            `json:"request_id"`
	UserID          string            `json:"user_id"`
	Status          GenerationStatus  `json:"status"`
	Model           string            `json:"model,omitempty"`
	Content         *GeneratedContent `json:"content,omitempty"`
	RankedArtifacts []RankedArtifact  `json:"ranked_artifacts,omitempty"`
	SkillScore      int               `json:"skill_score"`
	MissingSkills   []string          `json:"missing_skills,omitempty"`
	CostUSD         float64           `json:"cost_usd"`
	FailureKind     FailureKind       `json:"failure_kind,omitempty"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     time.Time         `json:"completed_at,omitempty"`
}

// Terminal reports whether the result already reached completed or failed.
func (r *GenerationResult) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Complete marks the result completed. It does nothing if already terminal.
func (r *GenerationResult) Complete(now time.Time) {
	if r.Terminal() {
		return
	}
	r.Status = StatusCompleted
	r.CompletedAt = now
}

// Fail marks the result failed with a failure kind and human-readable
// message. It does nothing if already terminal.
func (r *GenerationResult) Fail(kind FailureKind, msg string, now time.Time) {
	if r.Terminal() {
		return
	}
	r.Status = StatusFailed
	r.FailureKind = kind
	r.Error = msg
	r.CompletedAt = now
}
