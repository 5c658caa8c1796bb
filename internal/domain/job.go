package domain

import "time"

// Candidate is a search hit before any extraction happens. It carries only
// what the search API returned.
type Candidate struct {
	URL        string
	Title      string
	Snippet    string
	SourceSite string
}

// StructuredJob is what the LLM pulls out of a raw posting. JSON tags match
// the schema the model is instructed to emit.
type StructuredJob struct {
	Title            string   `json:"job_title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Remote           bool     `json:"remote"`
	EmploymentType   string   `json:"employment_type"`
	SalaryRange      string   `json:"salary_range"`
	YearsExperience  int      `json:"yoe_required"`
	RequiredSkills   []string `json:"required_skills"`
	PreferredSkills  []string `json:"nice_to_have_skills"`
	Education        string   `json:"education"`
	Responsibilities []string `json:"responsibilities"`
	Qualifications   []string `json:"qualifications"`
	Benefits         []string `json:"benefits"`
	Summary          string   `json:"job_summary"`
	ApplyURL         string   `json:"apply_url"`
	DatePosted       string   `json:"date_posted"`

	SourceURL    string `json:"source_url"`
	SourceDomain string `json:"source_domain"`
}

// ScoredJob pairs a structured job with its relevance score.
type ScoredJob struct {
	Job        StructuredJob
	Score      int
	URL        string
	SourceSite string
}

// JobRecord is a ScoredJob as persisted, with identity and timestamp.
type JobRecord struct {
	ID         int64         `json:"id"`
	Job        StructuredJob `json:"job"`
	Score      int           `json:"score"`
	URL        string        `json:"url"`
	SourceSite string        `json:"sourceSite"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// UnextractedJob records a URL whose content could not be retrieved, with
// retry bookkeeping. retry_count only ever goes up; a later successful
// extraction deletes the row.
type UnextractedJob struct {
	ID               int64
	URL              string
	Title            string
	Snippet          string
	SourceSite       string
	MethodsAttempted []string
	ErrorMessage     string
	RetryCount       int
	FirstSeen        time.Time
	LastSeen         time.Time
}

// PreFilteredJob records a posting rejected before the LLM call, kept for
// auditability. Write-once.
type PreFilteredJob struct {
	ID             int64
	URL            string
	Title          string
	Snippet        string
	SourceSite     string
	FilterReason   string
	FilterDetails  string
	ContentPreview string
	CreatedAt      time.Time
}

// SkillCount is one row of the skill-frequency aggregate.
type SkillCount struct {
	Skill     string
	Category  string
	TimesSeen int
	FirstSeen time.Time
	LastSeen  time.Time
}
