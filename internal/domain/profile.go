package domain

// Profile is the scoring input for one side of a match: a candidate or a job.
// Embedding is nil when no embedding has been generated yet.
type Profile struct {
	ID        string
	Skills    []string
	Embedding []float32
}

// HasEmbedding reports whether the profile carries a non-empty embedding.
func (p *Profile) HasEmbedding() bool {
	return p != nil && len(p.Embedding) > 0
}
