package cooldown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
)

const Unknown = "unknown"

// LessonMeta is the grade/unit/section/lesson identity of a lesson page.
type LessonMeta struct {
	Grade   string
	Unit    string
	Section string
	Lesson  string
}

// Id is used in screenshot file names.
func (m LessonMeta) Id() string {
	return fmt.Sprintf("%s-%s-%s-%s", m.Grade, m.Unit, m.Section, m.Lesson)
}

func (m LessonMeta) Known() bool {
	return m.Grade != Unknown
}

var lessonPattern = regexp.MustCompile(`grade-(\d+)/unit-(\d+)/section-([a-f])/lesson-(\d+)`)

const normalizeFlags = purell.FlagsSafe |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery |
	purell.FlagRemoveDuplicateSlashes

// NormalizeUrl puts a lesson url in a canonical form, two urls that point to
// the same lesson normalize to the same string.
func NormalizeUrl(raw string) string {
	normalized, err := purell.NormalizeURLString(strings.TrimSpace(raw), normalizeFlags)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return normalized
}

// ParseLessonUrl extracts the lesson identity from a url of the form
// `.../grade-{G}/unit-{U}/section-{a-f}/lesson-{L}...`, all fields are
// "unknown" if the url does not match.
func ParseLessonUrl(raw string) LessonMeta {
	matches := lessonPattern.FindStringSubmatch(strings.ToLower(NormalizeUrl(raw)))
	if len(matches) != 5 {
		return LessonMeta{
			Grade:   Unknown,
			Unit:    Unknown,
			Section: Unknown,
			Lesson:  Unknown,
		}
	}
	return LessonMeta{
		Grade:   matches[1],
		Unit:    matches[2],
		Section: matches[3],
		Lesson:  matches[4],
	}
}
