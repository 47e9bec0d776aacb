package domain

import (
	"fmt"
	"math"
	"time"
)

// ScoreMethod records which combination path produced a match score.
type ScoreMethod string

const (
	ScoreMethodCombined  ScoreMethod = "combined"
	ScoreMethodSkillOnly ScoreMethod = "skill_only"
)

// ScoreDetail is the explainability breakdown persisted with every score.
type ScoreDetail struct {
	Method           ScoreMethod `json:"method"`
	EmbeddingWeight  float64     `json:"embedding_weight"`
	SkillWeight      float64     `json:"skill_weight"`
	SkillScore       float64     `json:"skill_score"`
	EmbeddingScore   *float64    `json:"embedding_score,omitempty"`
	MatchedSkills    []string    `json:"matched_skills"`
	MissingSkills    []string    `json:"missing_skills"`
	AlgorithmVersion string      `json:"algorithm_version"`
	ComputedAt       time.Time   `json:"computed_at"`
}

// MatchRecord is the canonical outcome of scoring a candidate against a job.
// There is at most one record per (CandidateID, JobID).
type MatchRecord struct {
	ID             string
	CandidateID    string
	JobID          string
	MatchScore     float64
	SkillScore     *float64
	EmbeddingScore *float64
	Status         MatchStatus
	ScoreDetail    ScoreDetail
	ComputedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MatchHistoryEntry is an immutable audit record of one score or status change.
type MatchHistoryEntry struct {
	Seq            int64
	ID             string
	MatchRecordID  string
	PreviousScore  *float64
	NewScore       *float64
	PreviousStatus *MatchStatus
	NewStatus      *MatchStatus
	Note           string
	ActorID        string
	Timestamp      time.Time
}

// ValidateMatchRecord validates a MatchRecord instance
func ValidateMatchRecord(m *MatchRecord) error {
	if m == nil {
		return fmt.Errorf("match record cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("match record ID is required")
	}

	if m.CandidateID == "" {
		return fmt.Errorf("match record CandidateID is required")
	}

	if m.JobID == "" {
		return fmt.Errorf("match record JobID is required")
	}

	if !inUnitRange(m.MatchScore) {
		return fmt.Errorf("match record MatchScore out of range: %v", m.MatchScore)
	}

	if m.SkillScore != nil && !inUnitRange(*m.SkillScore) {
		return fmt.Errorf("match record SkillScore out of range: %v", *m.SkillScore)
	}

	if m.EmbeddingScore != nil && !inUnitRange(*m.EmbeddingScore) {
		return fmt.Errorf("match record EmbeddingScore out of range: %v", *m.EmbeddingScore)
	}

	if !IsValidMatchStatus(m.Status) {
		return fmt.Errorf("match record Status is invalid: %s", m.Status)
	}

	return nil
}

// ValidateMatchHistoryEntry validates a MatchHistoryEntry instance
func ValidateMatchHistoryEntry(e *MatchHistoryEntry) error {
	if e == nil {
		return fmt.Errorf("match history entry cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("match history entry ID is required")
	}

	if e.MatchRecordID == "" {
		return fmt.Errorf("match history entry MatchRecordID is required")
	}

	if e.NewScore == nil && e.NewStatus == nil {
		return fmt.Errorf("match history entry must record a score or a status")
	}

	if e.NewStatus != nil && !IsValidMatchStatus(*e.NewStatus) {
		return fmt.Errorf("match history entry NewStatus is invalid: %s", *e.NewStatus)
	}

	if e.PreviousStatus != nil && !IsValidMatchStatus(*e.PreviousStatus) {
		return fmt.Errorf("match history entry PreviousStatus is invalid: %s", *e.PreviousStatus)
	}

	return nil
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// StatusPtr returns a pointer to s.
func StatusPtr(s MatchStatus) *MatchStatus {
	return &s
}
