package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/studykit/aptrack/internal/catalog"
)

const sampleCSV = `id,name,subject,meanScore,passRate,description,emoji,tags,units,bigIdeas,prerequisites,labRequirement,exam,examDate,pdfUrl
physics-1,AP Physics 1,Science,2.55,45.6,Algebra-based mechanics,🧲,"mechanics,forces","Kinematics:12-18%,Dynamics:16-20%","Force Interactions,Energy",Algebra II,Yes,"3 hours, 2 sections",2026-05-08,https://example.org/physics-1.pdf
calculus-ab,AP Calculus AB,Math,2.91,58.0,Differential and integral calculus,📐,"calculus,derivatives","Limits:10-12%,Derivatives:10-12%","Change,Limits",Precalculus,,"3 hours 15 minutes",2026-05-12,
,Missing ID Course,Math,3.0,50,should be skipped,,,,,,,,,
`

func TestIngestCSV(t *testing.T) {
	courses, err := catalog.IngestCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("IngestCSV() error = %v", err)
	}

	if len(courses) != 2 {
		t.Fatalf("IngestCSV() returned %d courses, want 2 (row without id skipped)", len(courses))
	}

	phys := courses[0]
	if phys.ID != "physics-1" || phys.Subject != "Science" {
		t.Errorf("course[0] = %q/%q, want physics-1/Science", phys.ID, phys.Subject)
	}
	if len(phys.Tags) != 2 || phys.Tags[0] != "mechanics" {
		t.Errorf("Tags = %v, want [mechanics forces]", phys.Tags)
	}
	if len(phys.Units) != 2 {
		t.Fatalf("Units = %v, want 2 entries", phys.Units)
	}
	if phys.Units[0].Name != "Kinematics" || phys.Units[0].Weighting != "12-18%" {
		t.Errorf("Units[0] = %+v, want Kinematics/12-18%%", phys.Units[0])
	}
	if phys.Stars < 1 || phys.Stars > 5 {
		t.Errorf("Stars = %d, want within 1..5", phys.Stars)
	}
	if phys.DifficultyRating != catalog.DifficultyRating(2.55, 45.6) {
		t.Errorf("DifficultyRating = %v, want derived from meanScore/passRate", phys.DifficultyRating)
	}
	if phys.PDFURL != "https://example.org/physics-1.pdf" {
		t.Errorf("PDFURL = %q, want CSV value", phys.PDFURL)
	}
}

func TestIngestCSV_NoIDColumn(t *testing.T) {
	_, err := catalog.IngestCSV(strings.NewReader("name,subject\nA,B\n"))
	if err == nil {
		t.Error("IngestCSV() without id column should return error")
	}
}

func TestIngestXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"id", "name", "subject", "meanScore", "passRate", "tags", "units"},
		{"biology", "AP Biology", "Science", "2.83", "59.4", "cells,genetics", "Chemistry of Life:8-11%"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	courses, err := catalog.IngestXLSX(&buf)
	if err != nil {
		t.Fatalf("IngestXLSX() error = %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("IngestXLSX() returned %d courses, want 1", len(courses))
	}
	if courses[0].ID != "biology" || courses[0].MeanScore != 2.83 {
		t.Errorf("course = %+v, want biology with meanScore 2.83", courses[0])
	}
	if len(courses[0].Units) != 1 || courses[0].Units[0].Name != "Chemistry of Life" {
		t.Errorf("Units = %v, want [Chemistry of Life]", courses[0].Units)
	}
}
