package models

import "slices"

// Skill is an immutable skill tree catalog entry
type Skill struct {
	Name          string   `yaml:"name" json:"name"`
	Cost          int      `yaml:"cost" json:"cost"`
	Prerequisites []string `yaml:"prerequisites" json:"prerequisites"`
	Category      string   `yaml:"category" json:"category"`
	Description   string   `yaml:"description" json:"description"`
	StartsLearned bool     `yaml:"starts_learned" json:"startsLearned,omitempty"`
}

// SkillCategory groups skills for display
type SkillCategory struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
}

// SkillState is the per-save learned set, in learning order
type SkillState struct {
	Learned []string `json:"learned"`
}

// Has reports whether name has been learned.
func (s SkillState) Has(name string) bool {
	return slices.Contains(s.Learned, name)
}

// SkillView is a catalog entry joined with its per-save status
type SkillView struct {
	Skill
	Learned   bool `json:"learned"`
	Learnable bool `json:"learnable"`
}
