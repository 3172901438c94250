// Package reconcile links generated task lines back to the goals that most
// likely motivated them.
package reconcile

import (
	"strings"

	"github.com/dohr-michael/dayplan/internal/goals"
)

// Candidate is a goal eligible for linkage.
type Candidate struct {
	ID         string
	Title      string
	KeyResults []string
}

// Candidates converts goals, kept in the given order.
func Candidates(gs []goals.Goal) []Candidate {
	out := make([]Candidate, len(gs))
	for i, g := range gs {
		krs := make([]string, len(g.KeyResults))
		for j, kr := range g.KeyResults {
			krs[j] = kr.Text
		}
		out[i] = Candidate{ID: g.ID, Title: g.Title, KeyResults: krs}
	}
	return out
}

// Result is the goal chosen for a task.
type Result struct {
	GoalID         string
	GoalTitle      string
	KeyResultIndex int
}

// Matcher picks the source goal of a task line. basedOn holds the goal
// titles reported by the generator for the batch.
type Matcher interface {
	Match(task string, candidates []Candidate, basedOn []string) (Result, bool)
}

// SubstringMatcher is a best-effort heuristic:
//  1. the first candidate, in the supplied order, whose title occurs in the task;
//  2. else the candidate named by the first basedOn title that contains the task text;
//  3. else the first candidate.
//
// It reports false only when there are no candidates.
type SubstringMatcher struct{}

// Match implements Matcher.
func (SubstringMatcher) Match(task string, candidates []Candidate, basedOn []string) (Result, bool) {
	if len(candidates) == 0 {
		return Result{}, false
	}

	if c, ok := byTitleInTask(task, candidates); ok {
		return result(c, task), true
	}
	if c, ok := byBasedOn(task, candidates, basedOn); ok {
		return result(c, task), true
	}
	return result(candidates[0], task), true
}

func byTitleInTask(task string, candidates []Candidate) (Candidate, bool) {
	for _, c := range candidates {
		if c.Title != "" && strings.Contains(task, c.Title) {
			return c, true
		}
	}
	return Candidate{}, false
}

func byBasedOn(task string, candidates []Candidate, basedOn []string) (Candidate, bool) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Candidate{}, false
	}
	for _, b := range basedOn {
		if b == "" || !strings.Contains(b, task) {
			continue
		}
		for _, c := range candidates {
			if c.Title == "" {
				continue
			}
			if strings.Contains(b, c.Title) || strings.Contains(c.Title, b) {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

// result fills the key result index with the first non-empty key result
// quoted by the task, defaulting to 0.
func result(c Candidate, task string) Result {
	r := Result{GoalID: c.ID, GoalTitle: c.Title}
	for i, kr := range c.KeyResults {
		if kr != "" && strings.Contains(task, kr) {
			r.KeyResultIndex = i
			break
		}
	}
	return r
}
