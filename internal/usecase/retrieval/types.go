package retrieval

// Candidate is one retrieved passage tracked through the pipeline stages.
// Candidates are pipeline-run-scoped; only the excerpt surfaced in the final
// answer outlives the run.
type Candidate struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}
