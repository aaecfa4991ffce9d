// Package skilltree decides which technical skills can be learned and applies
// the learn transition. Learned skills are never unlearned.
package skilltree

import (
	"fmt"
	"slices"

	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/models"
	"devlife/internal/rules"
)

// Tree evaluates the catalog skill graph against one save's learned set
type Tree struct {
	cat    *catalog.Catalog
	state  *models.SkillState
	ledger *ledger.Ledger
}

// New binds a tree to a save.
func New(cat *catalog.Catalog, state *models.SkillState, l *ledger.Ledger) *Tree {
	return &Tree{cat: cat, state: state, ledger: l}
}

// LearnResult describes a successful learn
type LearnResult struct {
	Skill           string `json:"skill"`
	Cost            int    `json:"cost"`
	ReputationGain  int    `json:"reputationGain"`
	SkillPointsLeft int    `json:"skillPointsLeft"`
}

func (t *Tree) learnable(name string) (models.Skill, error) {
	skill, ok := t.cat.Skill(name)
	if !ok {
		return models.Skill{}, rules.NotFound("skill", name)
	}
	if t.state.Has(name) {
		return skill, fmt.Errorf("%w: %s", rules.ErrAlreadyLearned, name)
	}
	if missing := t.Missing(skill.Prerequisites); len(missing) > 0 {
		return skill, fmt.Errorf("%w: %s needs %v", rules.ErrPrerequisiteNotMet, name, missing)
	}
	return skill, nil
}

// IsLearnable reports whether name exists, is not learned, and has every
// prerequisite learned.
func (t *Tree) IsLearnable(name string) bool {
	_, err := t.learnable(name)
	return err == nil
}

// Learn spends the skill's cost, marks it learned and grants reputation.
func (t *Tree) Learn(name string) (LearnResult, error) {
	skill, err := t.learnable(name)
	if err != nil {
		return LearnResult{}, err
	}
	if t.ledger.SkillPoints() < skill.Cost {
		return LearnResult{}, fmt.Errorf("%w: %s costs %d, have %d", rules.ErrInsufficientSkillPoints, name, skill.Cost, t.ledger.SkillPoints())
	}
	if skill.Cost > 0 && !t.ledger.SpendSkillPoints(skill.Cost) {
		return LearnResult{}, fmt.Errorf("%w: %s", rules.ErrInsufficientSkillPoints, name)
	}
	t.state.Learned = append(t.state.Learned, name)

	gain := 2 + t.ledger.Attribute(models.AttributeTechnical)/2
	t.ledger.AddReputation(gain)

	return LearnResult{
		Skill:           name,
		Cost:            skill.Cost,
		ReputationGain:  gain,
		SkillPointsLeft: t.ledger.SkillPoints(),
	}, nil
}

// HasAllSkills reports whether every name is learned.
func (t *Tree) HasAllSkills(names []string) bool {
	return len(t.Missing(names)) == 0
}

// Missing returns the names that are not learned, in input order.
func (t *Tree) Missing(names []string) []string {
	var missing []string
	for _, n := range names {
		if !t.state.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Learned returns the learned skills in learning order.
func (t *Tree) Learned() []string {
	return slices.Clone(t.state.Learned)
}

func (t *Tree) TotalLearned() int { return len(t.state.Learned) }

// Available lists the skills learnable right now, in catalog order.
func (t *Tree) Available() []models.Skill {
	var out []models.Skill
	for _, s := range t.cat.Skills {
		if t.IsLearnable(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// Views joins every catalog skill with its status for this save.
func (t *Tree) Views() []models.SkillView {
	out := make([]models.SkillView, 0, len(t.cat.Skills))
	for _, s := range t.cat.Skills {
		out = append(out, t.view(s))
	}
	return out
}

// ByCategory returns the views for one category.
func (t *Tree) ByCategory(category string) []models.SkillView {
	var out []models.SkillView
	for _, s := range t.cat.Skills {
		if s.Category == category {
			out = append(out, t.view(s))
		}
	}
	return out
}

// CountsByCategory counts learned skills per category.
func (t *Tree) CountsByCategory() map[string]int {
	counts := make(map[string]int, len(t.cat.Categories))
	for _, cat := range t.cat.Categories {
		counts[cat.Key] = 0
	}
	for _, name := range t.state.Learned {
		if s, ok := t.cat.Skill(name); ok {
			counts[s.Category]++
		}
	}
	return counts
}

func (t *Tree) view(s models.Skill) models.SkillView {
	return models.SkillView{
		Skill:     s,
		Learned:   t.state.Has(s.Name),
		Learnable: t.IsLearnable(s.Name),
	}
}
