package tasks

import (
	"regexp"
	"strings"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/goals"
)

// Generated is the structured form of a generated task. The bracketed string
// form is produced by Line and only used at the wire boundary.
type Generated struct {
	Category    string
	Description string
	Minutes     int
	// Label is the duration token as written by the generator. When empty,
	// Line renders one from Minutes.
	Label string
}

var (
	categoryRe = regexp.MustCompile(`[\[【]([^\]】]+)[\]】]`)
	trailingRe = regexp.MustCompile(`\s*[(（][^()（）]*[)）]\s*$`)
)

// Line encodes the task as "[Category] description (duration)". The zh
// locale uses full-width category brackets.
func (g Generated) Line(locale duration.Locale) string {
	label := g.Label
	if label == "" {
		label = duration.Label(g.Minutes, locale)
	}
	var sb strings.Builder
	if g.Category != "" {
		if locale == duration.LocaleZH {
			sb.WriteString("【" + g.Category + "】")
		} else {
			sb.WriteString("[" + g.Category + "] ")
		}
	}
	sb.WriteString(g.Description)
	sb.WriteString(" (" + label + ")")
	return sb.String()
}

// ParseLine decodes a task line. A missing category falls back to the study
// task label; a missing duration falls back to duration.DefaultMinutes.
func ParseLine(line string, locale duration.Locale) Generated {
	line = strings.TrimSpace(line)
	g := Generated{
		Category: StudyTaskLabel(locale),
		Minutes:  duration.Minutes(line),
	}
	if tok, ok := duration.Token(line); ok {
		g.Label = tok
	}

	rest := line
	if loc := categoryRe.FindStringSubmatchIndex(line); loc != nil {
		g.Category = strings.TrimSpace(line[loc[2]:loc[3]])
		rest = line[:loc[0]] + line[loc[1]:]
	}
	rest = trailingRe.ReplaceAllString(rest, "")
	g.Description = strings.TrimSpace(rest)
	return g
}

// Category parses only the category label of a task line.
func Category(line string, locale duration.Locale) string {
	if m := categoryRe.FindStringSubmatch(line); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			return c
		}
	}
	return StudyTaskLabel(locale)
}

var categoryLabels = map[duration.Locale]map[goals.Category]string{
	duration.LocaleEN: {
		goals.CategoryAcademic: "Coursework",
		goals.CategorySkill:    "Skill Building",
		goals.CategoryProject:  "Project Practice",
		goals.CategoryPersonal: "Personal Growth",
		goals.CategoryCareer:   "Career Planning",
	},
	duration.LocaleZH: {
		goals.CategoryAcademic: "课程学习",
		goals.CategorySkill:    "技能提升",
		goals.CategoryProject:  "项目实践",
		goals.CategoryPersonal: "个人发展",
		goals.CategoryCareer:   "职业规划",
	},
}

// CategoryLabel returns the display label for a goal category.
func CategoryLabel(c goals.Category, locale duration.Locale) string {
	if l, ok := categoryLabels[locale][c]; ok {
		return l
	}
	return StudyTaskLabel(locale)
}

// StudyTaskLabel is the label used when no category is known.
func StudyTaskLabel(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "学习任务"
	}
	return "Study Task"
}

// ReviewLabel labels note-consolidation tasks.
func ReviewLabel(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "复习巩固"
	}
	return "Review"
}

// PlanningLabel labels reflection tasks.
func PlanningLabel(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "学习规划"
	}
	return "Planning"
}
