package structure_test

import (
	"testing"

	"github.com/studykit/aptrack/internal/structure"
)

func TestParse_WeightedUnitPattern(t *testing.T) {
	text := `AP Physics Course at a Glance
Unit 2: Dynamics (20%)
Unit 1: Kinematics (15%)
Unit 3: Energy (25%)`

	got := structure.Parse(text, "physics-1")

	if len(got.Units) != 3 {
		t.Fatalf("unit count = %d, want 3", len(got.Units))
	}

	wantUnits := []struct {
		id        string
		name      string
		weighting string
	}{
		{"unit-1", "Kinematics", "15%"},
		{"unit-2", "Dynamics", "20%"},
		{"unit-3", "Energy", "25%"},
	}
	for i, want := range wantUnits {
		u := got.Units[i]
		if u.ID != want.id || u.Name != want.name || u.Weighting != want.weighting {
			t.Errorf("unit %d = {%s %q %q}, want {%s %q %q}",
				i, u.ID, u.Name, u.Weighting, want.id, want.name, want.weighting)
		}
		if topics := len(u.Topics); topics != 5 {
			t.Errorf("unit %d topic count = %d, want 5 placeholder topics", i, topics)
		}
	}
}

func TestParse_NumberedPatternWithWeighting(t *testing.T) {
	text := "Course outline 1. Limits and Continuity (10%) 2. Differentiation (40%)"

	got := structure.Parse(text, "calculus-ab")

	if len(got.Units) != 2 {
		t.Fatalf("unit count = %d, want 2", len(got.Units))
	}
	if got.Units[1].Name != "Differentiation" || got.Units[1].Weighting != "40%" {
		t.Errorf("unit 2 = %q (%q), want Differentiation (40%%)",
			got.Units[1].Name, got.Units[1].Weighting)
	}
}

func TestParse_UnweightedPatternKeepsEmptyWeighting(t *testing.T) {
	text := "Unit 1: Foundations of Government"

	got := structure.Parse(text, "us-government")

	if len(got.Units) != 1 {
		t.Fatalf("unit count = %d, want 1", len(got.Units))
	}
	if got.Units[0].Weighting != "" {
		t.Errorf("Weighting = %q, want empty for unweighted pattern", got.Units[0].Weighting)
	}
}

func TestParse_FirstMatchingTierWins(t *testing.T) {
	// both the weighted "Unit N:" tier and the bare numbered tier could
	// match here; only the higher-priority weighted tier should apply
	text := "Unit 1: Kinematics (15%) also mentions 7. Gravitation somewhere"

	got := structure.Parse(text, "physics-1")

	if len(got.Units) != 1 {
		t.Fatalf("unit count = %d, want 1 (lower tiers skipped)", len(got.Units))
	}
	if got.Units[0].ID != "unit-1" {
		t.Errorf("unit id = %s, want unit-1", got.Units[0].ID)
	}
}

func TestParse_NoMatchYieldsGenericSkeleton(t *testing.T) {
	got := structure.Parse("nothing that looks like an outline", "art-history")

	if len(got.Units) != 6 {
		t.Fatalf("unit count = %d, want 6 generic units", len(got.Units))
	}
	if got.Units[0].Name != "Introduction and Foundations" {
		t.Errorf("first generic unit = %q", got.Units[0].Name)
	}
	for i, u := range got.Units {
		if len(u.Topics) != 1 || u.Topics[0].Name != "Key Concepts" {
			t.Errorf("generic unit %d topics = %v, want one Key Concepts topic", i, u.Topics)
		}
	}
}

func TestParse_CourseName(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		courseID string
		want     string
	}{
		{"ap prefix", "AP Chemistry Course and Exam Description", "chemistry", "Chemistry"},
		{"course at a glance", "Chemistry Course at a Glance", "chemistry", "Chemistry"},
		{"fallback title-cases id", "no recognizable title", "computer-science-a", "Computer Science A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := structure.Parse(tt.text, tt.courseID)
			if got.Name != tt.want {
				t.Errorf("Name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	got := structure.Fallback("world-history")

	if got.Name != "World History" {
		t.Errorf("Name = %q, want %q", got.Name, "World History")
	}
	if len(got.Units) != 3 {
		t.Fatalf("unit count = %d, want 3", len(got.Units))
	}
	wantWeightings := []string{"15%", "70%", "15%"}
	for i, u := range got.Units {
		if u.Weighting != wantWeightings[i] {
			t.Errorf("unit %d weighting = %q, want %q", i, u.Weighting, wantWeightings[i])
		}
	}
	if got.Units[1].Name != "Main Content Areas" {
		t.Errorf("middle unit = %q, want %q", got.Units[1].Name, "Main Content Areas")
	}
}
