// Package structure derives a best-effort course outline from published
// course-overview PDFs. The pipeline always produces a fully populated
// outline: a heuristically parsed one when the PDF cooperates, a canned
// fallback when it does not.
package structure

// Structure is the course → units → topics outline for one course.
type Structure struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Units []Unit `json:"units"`
}

// Unit is one course unit. Weighting is the exam weighting as printed in
// the source document ("20%"), or empty when the source carries none.
type Unit struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Weighting string  `json:"weighting"`
	Topics    []Topic `json:"topics"`
}

// Topic is placeholder content under a unit. Real per-topic parsing is out
// of scope: the pipeline recovers unit-level granularity only.
type Topic struct {
	ID                 string   `json:"id"`
	UnitID             string   `json:"unitId"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	LearningObjectives []string `json:"learningObjectives"`
}
