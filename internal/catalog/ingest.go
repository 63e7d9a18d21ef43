package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// IngestCSV reads the catalog dataset from CSV. The first row is the
// header; rows missing an id or name are skipped. Numeric parse failures
// default to zero rather than failing the whole ingest.
func IngestCSV(r io.Reader) ([]Course, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading catalog CSV: %w", err)
	}

	return coursesFromRows(rows)
}

// coursesFromRows converts a header-led table into courses. Shared by the
// CSV and XLSX ingestion paths.
func coursesFromRows(rows [][]string) ([]Course, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog dataset is empty")
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("catalog dataset has no id column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	courses := make([]Course, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id := field(row, "id")
		name := field(row, "name")
		if id == "" || name == "" {
			continue
		}

		meanScore := parseFloat(field(row, "meanScore"))
		passRate := parseFloat(field(row, "passRate"))
		rating := DifficultyRating(meanScore, passRate)

		courses = append(courses, Course{
			ID:               id,
			Name:             name,
			Subject:          field(row, "subject"),
			MeanScore:        meanScore,
			PassRate:         passRate,
			DifficultyRating: rating,
			Stars:            Stars(rating),
			Description:      field(row, "description"),
			Emoji:            field(row, "emoji"),
			Tags:             splitList(field(row, "tags")),
			Units:            parseUnits(field(row, "units")),
			BigIdeas:         splitList(field(row, "bigIdeas")),
			Prerequisites:    field(row, "prerequisites"),
			LabRequirement:   field(row, "labRequirement"),
			Exam:             field(row, "exam"),
			ExamDate:         field(row, "examDate"),
			PDFURL:           field(row, "pdfUrl"),
		})
	}

	slog.Info("catalog ingested", "courses", len(courses))
	return courses, nil
}

// parseUnits splits a "unitName:weighting,unitName:weighting" list,
// preserving dataset order. Pairs without a weighting are dropped.
func parseUnits(s string) []UnitWeight {
	if s == "" {
		return nil
	}

	var units []UnitWeight
	for _, pair := range strings.Split(s, ",") {
		name, weighting, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		weighting = strings.TrimSpace(weighting)
		if name == "" || weighting == "" {
			continue
		}
		units = append(units, UnitWeight{Name: name, Weighting: weighting})
	}
	return units
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
