// Package catalog holds the AP course catalog: ingestion from tabular
// datasets, derived difficulty ratings and the filter engine.
package catalog

// UnitWeight is one syllabus unit and its exam weighting (e.g. "12-18%").
type UnitWeight struct {
	Name      string `json:"name"`
	Weighting string `json:"weighting"`
}

// Course is one catalog entry. Courses are populated once at catalog load
// and immutable for the rest of the session; DifficultyRating and Stars are
// derived from MeanScore and PassRate at ingestion time.
type Course struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Subject          string       `json:"subject"`
	MeanScore        float64      `json:"meanScore"`
	PassRate         float64      `json:"passRate"`
	DifficultyRating float64      `json:"difficultyRating"`
	Stars            int          `json:"stars"`
	Description      string       `json:"description"`
	Emoji            string       `json:"emoji"`
	Tags             []string     `json:"tags"`
	Units            []UnitWeight `json:"units"`
	BigIdeas         []string     `json:"bigIdeas"`
	Prerequisites    string       `json:"prerequisites"`
	LabRequirement   string       `json:"labRequirement"`
	Exam             string       `json:"exam"`
	ExamDate         string       `json:"examDate"`
	PDFURL           string       `json:"pdfUrl,omitempty"`
}
