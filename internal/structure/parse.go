package structure

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// unitPatterns are tried in priority order; the first pattern yielding at
// least one match wins and the rest are skipped. The first two carry an
// exam-weighting percentage, the last two do not.
var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Unit\s+(\d+):\s*([^(]+?)\s*\((\d+)%\)`),
	regexp.MustCompile(`(?i)(\d+)\.\s*([^(]+?)\s*\((\d+)%\)`),
	regexp.MustCompile(`(?i)Unit\s+(\d+):\s*([^\n]+)`),
	regexp.MustCompile(`(?i)(\d+)\.\s*([^\n]+)`),
}

var courseNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)AP\s+([A-Za-z\s]+?)(?:\s+Course|Exam|Overview)`),
	regexp.MustCompile(`(?i)Advanced\s+Placement\s+([A-Za-z\s]+?)(?:\s+Course|Exam|Overview)`),
	regexp.MustCompile(`(?i)([A-Za-z\s]+?)\s+Course\s+at\s+a\s+Glance`),
}

var whitespace = regexp.MustCompile(`\s+`)

var titleCaser = cases.Title(language.English, cases.NoLower)

// Parse derives a course outline from extracted PDF text.
func Parse(text, courseID string) Structure {
	clean := strings.TrimSpace(whitespace.ReplaceAllString(text, " "))

	return Structure{
		ID:    courseID,
		Name:  courseName(clean, courseID),
		Units: parseUnits(clean),
	}
}

// courseName recovers the course title from the document text, falling back
// to a title-cased rendering of the course id.
func courseName(text, courseID string) string {
	for _, pattern := range courseNamePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return CourseNameFromID(courseID)
}

// CourseNameFromID turns a hyphenated course id into a readable name.
func CourseNameFromID(courseID string) string {
	return titleCaser.String(strings.ReplaceAll(courseID, "-", " "))
}

func parseUnits(text string) []Unit {
	var matches [][]string
	var withWeighting bool
	for i, pattern := range unitPatterns {
		if found := pattern.FindAllStringSubmatch(text, -1); len(found) > 0 {
			matches = found
			withWeighting = i < 2
			break
		}
	}
	if matches == nil {
		return genericUnits()
	}

	type numbered struct {
		num  int
		unit Unit
	}
	units := make([]numbered, 0, len(matches))
	for _, m := range matches {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		id := fmt.Sprintf("unit-%d", num)
		name := strings.TrimSpace(m[2])
		if name == "" {
			name = fmt.Sprintf("Unit %d", num)
		}
		weighting := ""
		if withWeighting {
			weighting = m[3] + "%"
		}
		units = append(units, numbered{num: num, unit: Unit{
			ID:        id,
			Name:      name,
			Weighting: weighting,
			Topics:    placeholderTopics(id),
		}})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].num < units[j].num })

	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u.unit
	}
	return out
}

// placeholderTopics is the fixed topic set attached to every parsed unit.
// Unit-level granularity is the contract here; topics stay generic.
func placeholderTopics(unitID string) []Topic {
	names := []string{
		"Fundamental Concepts",
		"Key Principles",
		"Problem-Solving Strategies",
		"Real-World Applications",
		"Experimental Methods",
	}
	topics := make([]Topic, len(names))
	for i, name := range names {
		topics[i] = Topic{
			ID:     fmt.Sprintf("%s-topic-%d", unitID, i+1),
			UnitID: unitID,
			Name:   name,
			LearningObjectives: []string{
				"Understand core concepts",
				"Apply principles to problems",
				"Analyze real-world scenarios",
			},
		}
	}
	return topics
}

// genericUnits is the skeleton used when no unit pattern matches at all.
func genericUnits() []Unit {
	names := []string{
		"Introduction and Foundations",
		"Core Concepts and Principles",
		"Advanced Applications",
		"Problem Solving and Analysis",
		"Real-World Connections",
		"Review and Preparation",
	}
	units := make([]Unit, len(names))
	for i, name := range names {
		id := fmt.Sprintf("unit-%d", i+1)
		units[i] = Unit{
			ID:   id,
			Name: name,
			Topics: []Topic{{
				ID:     id + "-topic-1",
				UnitID: id,
				Name:   "Key Concepts",
				LearningObjectives: []string{
					"Understand fundamental principles",
					"Apply concepts to problems",
					"Develop analytical skills",
				},
			}},
		}
	}
	return units
}

// Fallback is the canned three-unit outline used when fetching or parsing
// the source document fails outright.
func Fallback(courseID string) Structure {
	return Structure{
		ID:   courseID,
		Name: CourseNameFromID(courseID),
		Units: []Unit{
			{
				ID:        "unit-1",
				Name:      "Introduction and Foundations",
				Weighting: "15%",
				Topics: []Topic{{
					ID:     "unit-1-topic-1",
					UnitID: "unit-1",
					Name:   "Core Concepts",
					LearningObjectives: []string{
						"Understand fundamental principles",
						"Learn basic terminology",
						"Develop foundational skills",
					},
				}},
			},
			{
				ID:        "unit-2",
				Name:      "Main Content Areas",
				Weighting: "70%",
				Topics: []Topic{{
					ID:     "unit-2-topic-1",
					UnitID: "unit-2",
					Name:   "Key Topics",
					LearningObjectives: []string{
						"Master essential concepts",
						"Apply principles to problems",
						"Develop analytical thinking",
					},
				}},
			},
			{
				ID:        "unit-3",
				Name:      "Review and Application",
				Weighting: "15%",
				Topics: []Topic{{
					ID:     "unit-3-topic-1",
					UnitID: "unit-3",
					Name:   "Integration",
					LearningObjectives: []string{
						"Synthesize knowledge",
						"Apply concepts broadly",
						"Prepare for assessment",
					},
				}},
			},
		},
	}
}
