// Package duration extracts duration tokens from generated task lines and
// renders aggregated totals.
package duration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMinutes is assumed for a task line without a recognizable duration.
const DefaultMinutes = 60

// Locale selects the wording used for rendered durations.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleZH Locale = "zh"
)

// ParseLocale maps a config value to a Locale, defaulting to English.
func ParseLocale(s string) Locale {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zh", "zh-cn", "zh_cn", "cn":
		return LocaleZH
	default:
		return LocaleEN
	}
}

// parenTokenRe matches a parenthesized token, ASCII or full-width.
var parenTokenRe = regexp.MustCompile(`[(（]([^()（）]*)[)）]`)

// leadingNumberRe matches the number at the start of a duration token.
var leadingNumberRe = regexp.MustCompile(`^\s*(?:about|approx\.?|~|约)?\s*(\d+(?:\.\d+)?)`)

var (
	hourUnits   = []string{"hour", "hr", "小时", "h"}
	minuteUnits = []string{"minute", "min", "分钟", "m"}
)

// Token returns the last parenthesized token of a task line.
func Token(task string) (string, bool) {
	matches := parenTokenRe.FindAllStringSubmatch(task, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}

// Minutes returns the estimated minutes encoded in a task line.
// Hours are converted and rounded to the nearest minute. Lines with no
// usable token fall back to DefaultMinutes.
func Minutes(task string) int {
	token, ok := Token(task)
	if !ok {
		return DefaultMinutes
	}
	if m, ok := parseToken(token); ok {
		return m
	}
	return DefaultMinutes
}

func parseToken(token string) (int, bool) {
	m := leadingNumberRe.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	unit := strings.ToLower(strings.TrimSpace(token[len(m[0]):]))
	switch {
	case hasUnit(unit, hourUnits):
		return int(math.Round(value * 60)), true
	case hasUnit(unit, minuteUnits):
		return int(math.Round(value)), true
	default:
		return 0, false
	}
}

// hasUnit reports whether unit starts with one of the candidates. Single
// letter abbreviations must stand alone ("2h", "2 h").
func hasUnit(unit string, candidates []string) bool {
	for _, c := range candidates {
		if len(c) == 1 {
			if unit == c {
				return true
			}
			continue
		}
		if strings.HasPrefix(unit, c) {
			return true
		}
	}
	return false
}

// Sum adds the minutes of every task line. The result does not depend on order.
func Sum(tasks []string) int {
	total := 0
	for _, t := range tasks {
		total += Minutes(t)
	}
	return total
}

// Total renders the aggregated duration of a task list.
func Total(tasks []string, locale Locale) string {
	return Format(Sum(tasks), locale)
}

// Format renders a minute count as an approximate human-readable total.
func Format(minutes int, locale Locale) string {
	if minutes < 0 {
		minutes = 0
	}
	hours, rest := minutes/60, minutes%60

	if locale == LocaleZH {
		switch {
		case hours > 0 && rest > 0:
			return fmt.Sprintf("约%d小时%d分钟", hours, rest)
		case hours > 0:
			return fmt.Sprintf("约%d小时", hours)
		default:
			return fmt.Sprintf("约%d分钟", rest)
		}
	}

	switch {
	case hours > 0 && rest > 0:
		return "approximately " + plural(hours, "hour") + " " + plural(rest, "minute")
	case hours > 0:
		return "approximately " + plural(hours, "hour")
	default:
		return "approximately " + plural(rest, "minute")
	}
}

// Label renders the per-task duration token, without parentheses:
// "2 hours", "1.5 hours", "30 minutes".
func Label(minutes int, locale Locale) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes >= 60 && minutes%30 == 0 {
		hours := strconv.FormatFloat(float64(minutes)/60, 'f', -1, 64)
		if locale == LocaleZH {
			return hours + "小时"
		}
		if minutes == 60 {
			return "1 hour"
		}
		return hours + " hours"
	}
	if locale == LocaleZH {
		return fmt.Sprintf("%d分钟", minutes)
	}
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
