package business

import (
	"fmt"
	"testing"
	"time"

	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/models"
	"devlife/internal/rules"
	"devlife/internal/rules/randtest"
	"devlife/internal/skilltree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	game   *models.GameState
	rng    *randtest.Sequence
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	g := models.NewGameState(cat.StartingSkills())
	l := ledger.New(&g.Character, ledger.Options{})
	rng := &randtest.Sequence{FloatFallback: 0.5}
	e := New(cat, &g.Business, l, skilltree.New(cat, &g.Skills, l), rng)
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return &fixture{engine: e, game: g, rng: rng}
}

// install puts a product straight into the development slot.
func (f *fixture) install(p models.Product) *models.Product {
	f.game.Business.CurrentDevelopment = &p
	return f.game.Business.CurrentDevelopment
}

func TestGenerateIdea(t *testing.T) {
	f := newFixture(t)
	f.rng.PushFloats(0.5).PushInts(1, 2, 2, 0, 3, 0)

	idea := f.engine.GenerateIdea(t0)
	assert.Equal(t, "id-1", idea.ID)
	assert.Equal(t, 4, idea.Quality)
	assert.Equal(t, models.IdeaCommercial, idea.Type)
	assert.Equal(t, "Restaurant Ordering App", idea.Name)
	assert.Equal(t, []string{"JavaScript", "Python", "Node.js"}, idea.RequiredSkills)
	assert.Equal(t, t0, idea.CreatedAt)
	assert.Len(t, f.engine.Ideas(), 1)
}

func TestGenerateIdeaBounds(t *testing.T) {
	f := newFixture(t)
	f.game.Character.Attributes = models.Attributes{Technical: 10, Business: 1, Social: 1, Creativity: 10}
	for i := 0; i < 20; i++ {
		f.rng.PushFloats(0.999).PushInts(i, i, i)
		idea := f.engine.GenerateIdea(t0)
		assert.True(t, idea.Quality >= 0 && idea.Quality <= 10)
		assert.NotEmpty(t, idea.RequiredSkills)
		assert.LessOrEqual(t, len(idea.RequiredSkills), 3)
		seen := map[string]bool{}
		for _, s := range idea.RequiredSkills {
			assert.False(t, seen[s], "duplicate skill %s", s)
			seen[s] = true
		}
	}
}

func TestStartDevelopment(t *testing.T) {
	f := newFixture(t)
	f.game.Business.Ideas = []models.Idea{
		{ID: "a", Name: "Blog", Type: models.IdeaPortfolio, Quality: 3, RequiredSkills: []string{"HTML"}},
		{ID: "b", Name: "Shop", Type: models.IdeaCommercial, Quality: 5, RequiredSkills: []string{"React"}},
	}

	_, err := f.engine.StartDevelopment("zzz", t0)
	assert.ErrorIs(t, err, rules.ErrNotFound)

	_, err = f.engine.StartDevelopment("b", t0)
	assert.ErrorIs(t, err, rules.ErrMissingSkills)

	p, err := f.engine.StartDevelopment("a", t0)
	require.NoError(t, err)
	assert.Equal(t, models.StageDevelopment, p.Stage)
	assert.Equal(t, 3, p.Quality)
	assert.Equal(t, "a", p.IdeaID)
	require.Len(t, f.game.Business.Ideas, 1)
	assert.Equal(t, "b", f.game.Business.Ideas[0].ID)

	f.game.Skills.Learned = append(f.game.Skills.Learned, "JavaScript", "React")
	_, err = f.engine.StartDevelopment("b", t0)
	assert.ErrorIs(t, err, rules.ErrDevelopmentInProgress)
	assert.ErrorIs(t, err, rules.ErrInvalidStageTransition)
}

func TestAdvanceDevelopmentToDebugging(t *testing.T) {
	f := newFixture(t)
	p := f.install(models.Product{ID: "p", Name: "Blog", Stage: models.StageDevelopment, Quality: 3})

	var res DevelopResult
	var err error
	for i := 0; i < 5; i++ {
		f.game.Character.Energy = 100
		res, err = f.engine.AdvanceDevelopment(100)
		require.NoError(t, err)
		assert.Equal(t, 21, res.ProgressGain)
		assert.Equal(t, 0, res.NewBugs)
	}
	assert.True(t, res.IsComplete)
	assert.Equal(t, 100, p.DevelopmentProgress)
	assert.Equal(t, models.StageDebugging, p.Stage)
	assert.Equal(t, 12+5, f.game.Character.SkillPoints)
	assert.Equal(t, 75, f.game.Character.Energy)

	_, err = f.engine.AdvanceDevelopment(100)
	assert.ErrorIs(t, err, rules.ErrInvalidStageTransition)
}

func TestAdvanceDevelopmentBugsAndGates(t *testing.T) {
	f := newFixture(t)
	p := f.install(models.Product{ID: "p", Stage: models.StageDevelopment})

	f.game.Character.Energy = 24
	_, err := f.engine.AdvanceDevelopment(80)
	assert.ErrorIs(t, err, rules.ErrInsufficientEnergy)
	assert.Equal(t, 0, p.DevelopmentProgress)

	f.game.Character.Energy = 25
	f.rng.PushFloats(0.01).PushInts(2)
	res, err := f.engine.AdvanceDevelopment(250)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NewBugs)
	assert.Equal(t, 21, res.ProgressGain, "score is clamped to 100")
	assert.Equal(t, 3, p.BugCount)
	assert.Equal(t, 0, f.game.Character.Energy)

	assert.InDelta(t, 0.05, BugChance(10, 100), 1e-9)
	assert.InDelta(t, 0.11, BugChance(3, 100), 1e-9)
}

func TestDebugDuringDevelopmentFailsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	p := f.install(models.Product{ID: "p", Stage: models.StageDevelopment, BugCount: 2, DebuggingProgress: 0})

	_, err := f.engine.Debug(1)
	assert.ErrorIs(t, err, rules.ErrInvalidStageTransition)
	assert.Equal(t, 2, p.BugCount)
	assert.Equal(t, 0, p.DebuggingProgress)
	assert.Equal(t, 75, f.game.Character.Energy)
}

func TestDebugNeedsBugsClearedAndFullProgress(t *testing.T) {
	f := newFixture(t)
	p := f.install(models.Product{ID: "p", Stage: models.StageDebugging, BugCount: 7})

	_, err := f.engine.Debug(0)
	assert.ErrorIs(t, err, rules.ErrInvalidAmount)

	f.game.Character.Energy = 100
	res, err := f.engine.Debug(5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.BugsFixed)
	assert.Equal(t, 100, res.Progress)
	assert.Equal(t, 2, res.BugsRemaining)
	assert.False(t, res.IsComplete)
	assert.Equal(t, models.StageDebugging, p.Stage)

	f.game.Character.Energy = 100
	res, err = f.engine.Debug(5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BugsFixed)
	assert.True(t, res.IsComplete)
	assert.Equal(t, models.StageReady, p.Stage)
}

func TestDebugReviewPassWithoutBugs(t *testing.T) {
	f := newFixture(t)
	p := f.install(models.Product{ID: "p", Stage: models.StageDebugging})

	for i := 0; i < 4; i++ {
		f.game.Character.Energy = 100
		res, err := f.engine.Debug(1)
		require.NoError(t, err)
		assert.Equal(t, 0, res.BugsFixed)
		assert.Equal(t, 20, res.ProgressGain)
		assert.False(t, res.IsComplete)
	}
	f.game.Character.Energy = 19
	_, err := f.engine.Debug(1)
	assert.ErrorIs(t, err, rules.ErrInsufficientEnergy)
	assert.Equal(t, 80, p.DebuggingProgress)

	f.game.Character.Energy = 20
	res, err := f.engine.Debug(1)
	require.NoError(t, err)
	assert.True(t, res.IsComplete)
}

func TestLaunchSuccessChanceCapped(t *testing.T) {
	assert.Equal(t, 0.95, SuccessChance(10, 10, 0.95))
	assert.InDelta(t, 0.1+0.3+0.06, SuccessChance(5, 2, 0.95), 1e-9)
}

func TestLaunchSuccess(t *testing.T) {
	f := newFixture(t)
	f.game.Character.Attributes.Business = 10
	f.install(models.Product{ID: "p", Name: "AI Assistant", Type: models.IdeaDisruptive, Quality: 10, Stage: models.StageReady})
	f.rng.PushFloats(0.1, 0.5)

	res, err := f.engine.Launch(t0)
	require.NoError(t, err)
	assert.Equal(t, 0.95, res.SuccessChance)
	assert.True(t, res.IsSuccessful)
	assert.Equal(t, 4875, res.MonthlyRevenue)

	assert.Nil(t, f.game.Business.CurrentDevelopment)
	require.Len(t, f.game.Business.Products, 1)
	launched := f.game.Business.Products[0]
	assert.Equal(t, models.StageLaunched, launched.Stage)
	require.NotNil(t, launched.LaunchedAt)
	assert.Equal(t, t0, *launched.LaunchedAt)

	assert.Equal(t, 20, f.game.Character.Reputation)
	assert.Equal(t, 15, f.game.Character.SkillPoints)
	assert.Equal(t, 1, f.game.Character.AvailableAttributePoints)
}

func TestLaunchFailure(t *testing.T) {
	f := newFixture(t)
	f.install(models.Product{ID: "p", Type: models.IdeaPortfolio, Quality: 2, Stage: models.StageReady})
	f.rng.PushFloats(0.99, 0.425)

	res, err := f.engine.Launch(t0)
	require.NoError(t, err)
	assert.False(t, res.IsSuccessful)
	assert.Equal(t, 42, res.MonthlyRevenue)
	assert.Equal(t, 12, f.game.Character.Reputation)
	assert.Equal(t, 0, f.game.Character.AvailableAttributePoints)
}

func TestLaunchRequiresReady(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Launch(t0)
	assert.ErrorIs(t, err, rules.ErrInvalidStageTransition)

	f.install(models.Product{ID: "p", Stage: models.StageDebugging})
	_, err = f.engine.Launch(t0)
	assert.ErrorIs(t, err, rules.ErrInvalidStageTransition)
}

func TestLaunchUnknownIdeaType(t *testing.T) {
	f := newFixture(t)
	f.install(models.Product{ID: "p", Type: "retired", Quality: 9, Stage: models.StageReady, DevelopmentProgress: 100, DebuggingProgress: 100})
	before := f.game.Character

	_, err := f.engine.Launch(t0)
	assert.ErrorIs(t, err, rules.ErrNotFound)
	assert.Equal(t, before, f.game.Character)
	assert.Empty(t, f.game.Business.Products)
	require.NotNil(t, f.game.Business.CurrentDevelopment)
}

func TestAccrueDailyIncome(t *testing.T) {
	f := newFixture(t)
	f.game.Business.Products = []models.Product{
		{ID: "a", IsSuccessful: true, MonthlyRevenue: 300, Stage: models.StageLaunched},
		{ID: "b", IsSuccessful: false, MonthlyRevenue: 50, Stage: models.StageLaunched},
		{ID: "c", IsSuccessful: true, MonthlyRevenue: 900, Stage: models.StageLaunched},
	}
	// a pays, c misses its day
	f.rng.PushFloats(0.1, 0.85)

	total := f.engine.AccrueDailyIncome()
	assert.Equal(t, 10, total)
	assert.Equal(t, 1510, f.game.Character.Money)
	assert.Equal(t, 10, f.game.Business.TotalEarnings)
	assert.Equal(t, 10, f.game.Business.Products[0].TotalRevenue)
	assert.Equal(t, 0, f.game.Business.Products[2].TotalRevenue)

	stats := f.engine.Statistics()
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 2, stats.SuccessfulProducts)
	assert.Equal(t, 1200, stats.MonthlyIncome)
	assert.Equal(t, 10, stats.BusinessValue)
}
