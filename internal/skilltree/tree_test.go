package skilltree

import (
	"testing"

	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/models"
	"devlife/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, learned ...string) (*Tree, *models.GameState) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	g := models.NewGameState(learned)
	return New(cat, &g.Skills, ledger.New(&g.Character, ledger.Options{})), g
}

func TestLearnJavaScriptFromNewCharacter(t *testing.T) {
	tree, g := newTestTree(t, "HTML", "CSS")

	res, err := tree.Learn("JavaScript")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Cost)
	assert.Equal(t, 3, res.ReputationGain)
	assert.Equal(t, 9, g.Character.SkillPoints)
	assert.Equal(t, 13, g.Character.Reputation)
	assert.Equal(t, []string{"HTML", "CSS", "JavaScript"}, tree.Learned())
}

func TestPrerequisitesEnforcedRegardlessOfPoints(t *testing.T) {
	tree, g := newTestTree(t)
	g.Character.SkillPoints = 100

	_, err := tree.Learn("JavaScript")
	assert.ErrorIs(t, err, rules.ErrPrerequisiteNotMet)
	assert.ErrorIs(t, err, rules.ErrNotLearnable)
	assert.Equal(t, 100, g.Character.SkillPoints)
	assert.Empty(t, tree.Learned())
}

func TestLearnFailures(t *testing.T) {
	tree, g := newTestTree(t, "HTML", "CSS")

	_, err := tree.Learn("COBOL")
	assert.ErrorIs(t, err, rules.ErrNotFound)

	_, err = tree.Learn("HTML")
	assert.ErrorIs(t, err, rules.ErrAlreadyLearned)
	assert.ErrorIs(t, err, rules.ErrNotLearnable)

	g.Character.SkillPoints = 2
	_, err = tree.Learn("JavaScript")
	assert.ErrorIs(t, err, rules.ErrInsufficientSkillPoints)
	assert.Equal(t, 2, g.Character.SkillPoints)
	assert.False(t, tree.HasAllSkills([]string{"JavaScript"}))
}

func TestLearnIsMonotonic(t *testing.T) {
	tree, g := newTestTree(t, "HTML", "CSS")
	g.Character.SkillPoints = 50

	for _, name := range []string{"JavaScript", "React", "Redux", "Node.js"} {
		_, err := tree.Learn(name)
		require.NoError(t, err, name)
	}
	for _, name := range []string{"HTML", "CSS", "JavaScript", "React", "Redux", "Node.js"} {
		assert.False(t, tree.IsLearnable(name), name)
	}
	assert.True(t, tree.HasAllSkills([]string{"React", "Node.js"}))
	assert.Equal(t, 6, tree.TotalLearned())
}

func TestReputationGainScalesWithTechnical(t *testing.T) {
	tree, g := newTestTree(t)
	g.Character.Attributes.Technical = 7

	res, err := tree.Learn("Python")
	require.NoError(t, err)
	assert.Equal(t, 5, res.ReputationGain)
}

func TestQueries(t *testing.T) {
	tree, _ := newTestTree(t, "HTML", "CSS")

	var names []string
	for _, s := range tree.Available() {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "JavaScript")
	assert.Contains(t, names, "Python")
	assert.NotContains(t, names, "React")
	assert.NotContains(t, names, "HTML")

	counts := tree.CountsByCategory()
	assert.Equal(t, 2, counts["frontend"])
	assert.Equal(t, 0, counts["advanced"])

	for _, v := range tree.ByCategory("database") {
		assert.Equal(t, "database", v.Category)
		if v.Name == "PostgreSQL" {
			assert.False(t, v.Learnable)
		}
	}
	assert.Len(t, tree.Views(), 33)
	assert.Equal(t, []string{"Node.js"}, tree.Missing([]string{"HTML", "Node.js"}))
}
