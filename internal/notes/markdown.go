package notes

import (
	"regexp"
	"strings"
)

// DefaultTitle is used when a note body has no level-1 heading.
const DefaultTitle = "Untitled Note"

var (
	tagPattern        = regexp.MustCompile(`#(\w+)`)
	headerPattern     = regexp.MustCompile(`(?m)^#+\s+`)
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern     = regexp.MustCompile(`\*(.*?)\*`)
	inlineCodePattern = regexp.MustCompile("`(.*?)`")
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	imagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	listPattern       = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedPattern   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	blockquotePattern = regexp.MustCompile(`(?m)^\s*>\s+`)
	tableRowPattern   = regexp.MustCompile(`(?m)^\s*\|.*\|$`)
	blankRunPattern   = regexp.MustCompile(`\n\s*\n`)
)

// Title extracts the note title: the text of the first line starting with
// "# ". Bodies without a level-1 heading get DefaultTitle.
func Title(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return DefaultTitle
}

// Tags extracts every #word token from the body, de-duplicated in order of
// first occurrence. The result is never nil: a tagless body yields an empty
// slice so exported notes round-trip through the import schema.
func Tags(markdown string) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, m := range tagPattern.FindAllStringSubmatch(markdown, -1) {
		if tag := m[1]; !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// Strip removes markdown formatting, leaving plain text for previews.
func Strip(markdown string) string {
	out := markdown
	out = headerPattern.ReplaceAllString(out, "")
	out = imagePattern.ReplaceAllString(out, "$1")
	out = linkPattern.ReplaceAllString(out, "$1")
	out = boldPattern.ReplaceAllString(out, "$1")
	out = italicPattern.ReplaceAllString(out, "$1")
	out = inlineCodePattern.ReplaceAllString(out, "$1")
	out = listPattern.ReplaceAllString(out, "")
	out = numberedPattern.ReplaceAllString(out, "")
	out = blockquotePattern.ReplaceAllString(out, "")
	out = tableRowPattern.ReplaceAllString(out, "")
	out = blankRunPattern.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}
