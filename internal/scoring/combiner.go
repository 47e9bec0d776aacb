package scoring

import (
	"time"

	"github.com/cloo-solutions/matchd/internal/domain"
)

const (
	// EmbeddingWeight is the share of the embedding similarity in a combined score.
	EmbeddingWeight = 0.6
	// SkillWeight is the share of the skill overlap in a combined score.
	SkillWeight = 0.4
	// AlgorithmVersion identifies the weighting recorded in every ScoreDetail.
	AlgorithmVersion = "v1"
)

// Input holds both sides of a pair. Embeddings may be nil.
type Input struct {
	CandidateSkills    []string
	CandidateEmbedding []float32
	JobSkills          []string
	JobEmbedding       []float32
}

// Result is the outcome of Combine.
type Result struct {
	MatchScore     float64
	SkillScore     float64
	EmbeddingScore *float64
	Detail         domain.ScoreDetail
}

// Combine computes the component scores and blends them.
//
// When the embedding component is unavailable the score falls back to the
// skill overlap alone at full weight rather than a partially weighted blend.
func Combine(in Input, now time.Time) (Result, error) {
	embeddingScore, embeddingOK, err := Cosine(in.CandidateEmbedding, in.JobEmbedding)
	if err != nil {
		return Result{}, err
	}

	skillScore := Jaccard(in.CandidateSkills, in.JobSkills)
	matched, missing := SkillBreakdown(in.CandidateSkills, in.JobSkills)

	detail := domain.ScoreDetail{
		SkillScore:       skillScore,
		MatchedSkills:    matched,
		MissingSkills:    missing,
		AlgorithmVersion: AlgorithmVersion,
		ComputedAt:       now,
	}

	res := Result{SkillScore: skillScore}
	if embeddingOK {
		res.MatchScore = clampUnit(EmbeddingWeight*embeddingScore + SkillWeight*skillScore)
		res.EmbeddingScore = domain.Float64Ptr(embeddingScore)
		detail.Method = domain.ScoreMethodCombined
		detail.EmbeddingWeight = EmbeddingWeight
		detail.SkillWeight = SkillWeight
		detail.EmbeddingScore = domain.Float64Ptr(embeddingScore)
	} else {
		res.MatchScore = clampUnit(skillScore)
		detail.Method = domain.ScoreMethodSkillOnly
		detail.EmbeddingWeight = 0
		detail.SkillWeight = 1
	}
	res.Detail = detail

	return res, nil
}
