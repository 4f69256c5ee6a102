// Package maturity implements the framework-parametric maturity scoring
// engine: maturity scales, control trees, assessment responses, bottom-up
// score aggregation, gap analysis and action plan generation. Everything in
// this package is pure computation over in-memory data; persistence and
// transport live elsewhere.
package maturity

import "fmt"

// Level identifies a maturity level or tier within a framework scale,
// e.g. "initial" or "optimal". Levels are only meaningful relative to
// the scale that declares them.
type Level string

// LevelDef describes one level of a maturity scale.
type LevelDef struct {
	Level       Level  `json:"level"`
	Score       int    `json:"score"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Scale is an ordered set of maturity levels with dense integer scores
// starting at 1. Scales are defined once per framework and immutable.
type Scale struct {
	defs   []LevelDef
	scores map[Level]int
}

// NewScale builds a scale from ordered level definitions. Scores must form
// a dense, strictly increasing sequence starting at 1, with exactly one
// level per score.
func NewScale(defs []LevelDef) (*Scale, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("scale requires at least one level")
	}
	scores := make(map[Level]int, len(defs))
	for i, def := range defs {
		if def.Score != i+1 {
			return nil, fmt.Errorf("level %q has score %d, want %d", def.Level, def.Score, i+1)
		}
		if _, dup := scores[def.Level]; dup {
			return nil, fmt.Errorf("duplicate level %q", def.Level)
		}
		scores[def.Level] = def.Score
	}
	return &Scale{defs: defs, scores: scores}, nil
}

// MustScale is like NewScale but panics on invalid definitions. Catalogs
// use it for their static scales.
func MustScale(defs []LevelDef) *Scale {
	s, err := NewScale(defs)
	if err != nil {
		panic(err)
	}
	return s
}

// Levels returns the ordered level definitions.
func (s *Scale) Levels() []LevelDef {
	out := make([]LevelDef, len(s.defs))
	copy(out, s.defs)
	return out
}

// ScoreOf returns the integer score of a level, or 0 when the level is not
// part of the scale. Responses are validated on write, so a stored level
// always resolves.
func (s *Scale) ScoreOf(level Level) int {
	return s.scores[level]
}

// Contains reports whether a level belongs to the scale.
func (s *Scale) Contains(level Level) bool {
	_, ok := s.scores[level]
	return ok
}

// LevelOf buckets a real-valued score into a level using half-open
// intervals centered on the integer scores: score < 1.5 maps to the first
// level, < 2.5 to the second, and so on. It is total over the real line,
// clamping below the first and above the last level.
func (s *Scale) LevelOf(score float64) Level {
	for _, def := range s.defs {
		if score < float64(def.Score)+0.5 {
			return def.Level
		}
	}
	return s.defs[len(s.defs)-1].Level
}

// MinScore returns the lowest score of the scale.
func (s *Scale) MinScore() int {
	return s.defs[0].Score
}

// MaxScore returns the highest score of the scale.
func (s *Scale) MaxScore() int {
	return s.defs[len(s.defs)-1].Score
}

// Lowest returns the first level, used as the default current level of an
// unanswered control.
func (s *Scale) Lowest() Level {
	return s.defs[0].Level
}

// DefaultTarget returns the level directly above the lowest, or the lowest
// itself on a single-level scale. New responses target it by default.
func (s *Scale) DefaultTarget() Level {
	if len(s.defs) > 1 {
		return s.defs[1].Level
	}
	return s.defs[0].Level
}
