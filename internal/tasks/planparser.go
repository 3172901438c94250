package tasks

import (
	"regexp"
	"strings"

	"github.com/dohr-michael/dayplan/internal/duration"
)

// numberedItemRe matches numbered list items like "1. ", "2) ", "3）" and
// "4、". The ideographic comma needs no trailing space.
var numberedItemRe = regexp.MustCompile(`(?m)^\s*(\d+)(?:[.)）]\s+|、\s*)(.+)$`)

// bulletItemRe matches markdown bullets like "- " or "* ".
var bulletItemRe = regexp.MustCompile(`(?m)^\s*[-*•]\s+(.+)$`)

// ParseTaskList extracts task lines from a free-text generator reply.
// Numbered items win over bullets; as a last resort every line carrying a
// category marker or a duration token is taken.
func ParseTaskList(reply string) []string {
	if items := collect(numberedItemRe, reply, 2); len(items) > 0 {
		return items
	}
	if items := collect(bulletItemRe, reply, 1); len(items) > 0 {
		return items
	}

	var out []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_, hasToken := duration.Token(line)
		if hasToken || categoryRe.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

func collect(re *regexp.Regexp, text string, group int) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		item := strings.TrimSpace(m[group])
		item = strings.Trim(item, "*")
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
