package sqlitestore

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/dayplan/internal/goals"
)

// Fixture is the YAML seed format:
//
//	students:
//	  - id: stu-1
//	    name: Ada
//	    goals:
//	      - id: g-1
//	        title: Finish Algorithms
//	        priority: high
//	        key_results:
//	          - text: practice 10 problems
type Fixture struct {
	Students []FixtureStudent `yaml:"students"`
}

// FixtureStudent is a student with their goals.
type FixtureStudent struct {
	Student `yaml:",inline"`
	Goals   []goals.Goal `yaml:"goals"`
}

// LoadFixture decodes a YAML fixture.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// LoadFixtureFile decodes the YAML fixture at path.
func LoadFixtureFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFixture(f)
}

// SeedStats counts seeded records.
type SeedStats struct {
	Students int
	Goals    int
}

// Seed upserts every student and goal of the fixture. Goal defaults:
// status not_started, priority medium.
func (s *Store) Seed(ctx context.Context, f *Fixture) (SeedStats, error) {
	var stats SeedStats
	for _, st := range f.Students {
		if st.ID == "" {
			return stats, fmt.Errorf("student without id")
		}
		if err := s.UpsertStudent(ctx, st.Student); err != nil {
			return stats, err
		}
		stats.Students++

		for i, g := range st.Goals {
			if g.ID == "" {
				g.ID = fmt.Sprintf("%s-goal-%d", st.ID, i+1)
			}
			g.StudentID = st.ID
			if g.Status == "" {
				g.Status = goals.StatusNotStarted
			}
			if g.Priority == "" {
				g.Priority = goals.PriorityMedium
			}
			if err := s.UpsertGoal(ctx, g); err != nil {
				return stats, err
			}
			stats.Goals++
		}
	}
	return stats, nil
}
