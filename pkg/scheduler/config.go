package scheduler

import (
	"fmt"
	"time"
)

// SkillMatch selects how a worker's skills are compared to a task's requirements
type SkillMatch string

const (
	// MatchAll requires the worker to carry every required skill
	MatchAll SkillMatch = "all"
	// MatchAny requires the worker to carry at least one required skill
	MatchAny SkillMatch = "any"
)

// ParseSkillMatch converts a config value into a SkillMatch
func ParseSkillMatch(s string) (SkillMatch, error) {
	switch SkillMatch(s) {
	case MatchAll, "":
		return MatchAll, nil
	case MatchAny:
		return MatchAny, nil
	}
	return "", fmt.Errorf("unknown skill match policy %q", s)
}

// Config holds the engine settings. Zero values fall back to DefaultConfig.
type Config struct {
	TimeBudget      time.Duration
	SkillMatch      SkillMatch
	// DefaultPriority weighs tasks without a priority and must be positive
	DefaultPriority float64
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		TimeBudget:      10 * time.Second,
		SkillMatch:      MatchAll,
		DefaultPriority: 1,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TimeBudget <= 0 {
		c.TimeBudget = def.TimeBudget
	}
	if c.SkillMatch == "" {
		c.SkillMatch = def.SkillMatch
	}
	if c.DefaultPriority <= 0 {
		c.DefaultPriority = def.DefaultPriority
	}
	return c
}
