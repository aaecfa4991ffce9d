// Package business runs the product pipeline: ideas are generated into a
// backlog, one product at a time moves through development, debugging and
// ready, and launched products earn passive income.
package business

import (
	"fmt"
	"math"
	"time"

	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/models"
	"devlife/internal/rules"
	"devlife/internal/skilltree"

	"github.com/google/uuid"
)

const (
	maxQuality  = 10
	maxProgress = 100

	bugFixValue     = 20
	maxNewBugs      = 3
	maxIdeaSkills   = 3
	failureRevenue  = 100
	launchSkillPts  = 3
	launchAttrPoint = 1
)

// Engine binds the pipeline to one save's business state
type Engine struct {
	cat    *catalog.Catalog
	state  *models.BusinessState
	ledger *ledger.Ledger
	skills *skilltree.Tree
	rng    rules.Rand

	newID func() string
}

// New returns an engine for one save.
func New(cat *catalog.Catalog, state *models.BusinessState, l *ledger.Ledger, skills *skilltree.Tree, rng rules.Rand) *Engine {
	return &Engine{
		cat:    cat,
		state:  state,
		ledger: l,
		skills: skills,
		rng:    rng,
		newID:  uuid.NewString,
	}
}

// GenerateIdea appends a new idea to the backlog. The energy cost is charged
// by the caller.
func (e *Engine) GenerateIdea(now time.Time) models.Idea {
	creativity := float64(e.ledger.Attribute(models.AttributeCreativity))
	technical := float64(e.ledger.Attribute(models.AttributeTechnical))
	quality := int(math.Floor(0.7*creativity + 0.3*technical + e.rng.Float64()*3))
	quality = max(0, min(maxQuality, quality))

	var eligible []catalog.IdeaType
	for _, t := range e.cat.IdeaTypes {
		if t.MinQuality <= quality {
			eligible = append(eligible, t)
		}
	}
	kind := eligible[e.rng.IntN(len(eligible))]
	name := kind.Names[e.rng.IntN(len(kind.Names))]

	idea := models.Idea{
		ID:             e.newID(),
		Name:           name,
		Type:           kind.Key,
		Quality:        quality,
		RequiredSkills: e.drawSkills(1 + e.rng.IntN(maxIdeaSkills)),
		CreatedAt:      now,
	}
	e.state.Ideas = append(e.state.Ideas, idea)
	return idea
}

// drawSkills picks n distinct names from the idea skill pool.
func (e *Engine) drawSkills(n int) []string {
	pool := make([]string, len(e.cat.IdeaSkillPool))
	copy(pool, e.cat.IdeaSkillPool)
	n = min(n, len(pool))
	for i := 0; i < n; i++ {
		j := i + e.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// Ideas returns the backlog.
func (e *Engine) Ideas() []models.Idea { return e.state.Ideas }

// Current returns the product in the development slot, if any.
func (e *Engine) Current() (models.Product, bool) {
	if e.state.CurrentDevelopment == nil {
		return models.Product{}, false
	}
	return *e.state.CurrentDevelopment, true
}

// StartDevelopment moves an idea out of the backlog into the development slot.
func (e *Engine) StartDevelopment(ideaID string, now time.Time) (models.Product, error) {
	idx := -1
	for i, idea := range e.state.Ideas {
		if idea.ID == ideaID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Product{}, rules.NotFound("idea", ideaID)
	}
	if cur := e.state.CurrentDevelopment; cur != nil {
		return models.Product{}, fmt.Errorf("%w: %s", rules.ErrDevelopmentInProgress, cur.Name)
	}
	idea := e.state.Ideas[idx]
	if missing := e.skills.Missing(idea.RequiredSkills); len(missing) > 0 {
		return models.Product{}, fmt.Errorf("%w: %s needs %v", rules.ErrMissingSkills, idea.Name, missing)
	}

	p := &models.Product{
		ID:        e.newID(),
		IdeaID:    idea.ID,
		Name:      idea.Name,
		Type:      idea.Type,
		Quality:   idea.Quality,
		Stage:     models.StageDevelopment,
		CreatedAt: now,
	}
	e.state.Ideas = append(e.state.Ideas[:idx], e.state.Ideas[idx+1:]...)
	e.state.CurrentDevelopment = p
	return *p, nil
}

func (e *Engine) inStage(stage models.Stage) (*models.Product, error) {
	p := e.state.CurrentDevelopment
	if p == nil {
		return nil, fmt.Errorf("%w: no product in development", rules.ErrInvalidStageTransition)
	}
	if p.Stage != stage {
		return nil, fmt.Errorf("%w: %s is in %s, not %s", rules.ErrInvalidStageTransition, p.Name, p.Stage, stage)
	}
	return p, nil
}

func (e *Engine) requireEnergy(action string, need int) error {
	if have := e.ledger.Energy(); have < need {
		return fmt.Errorf("%w: %s needs %d, have %d", rules.ErrInsufficientEnergy, action, need, have)
	}
	return nil
}

// DevelopResult is the outcome of one development session
type DevelopResult struct {
	ProgressGain int  `json:"progressGain"`
	NewBugs      int  `json:"newBugs"`
	Progress     int  `json:"progress"`
	IsComplete   bool `json:"isComplete"`
}

// BugChance is the probability that a development session introduces bugs.
func BugChance(technical int, performanceScore float64) float64 {
	return math.Max(0.05, 0.4-0.03*float64(technical)-performanceScore/500)
}

// AdvanceDevelopment works one session on the product in development.
func (e *Engine) AdvanceDevelopment(performanceScore float64) (DevelopResult, error) {
	p, err := e.inStage(models.StageDevelopment)
	if err != nil {
		return DevelopResult{}, err
	}
	cost := e.cat.Balance.DevelopEnergyCost
	if err := e.requireEnergy("development", cost); err != nil {
		return DevelopResult{}, err
	}
	score := math.Max(0, math.Min(100, performanceScore))
	technical := e.ledger.Attribute(models.AttributeTechnical)

	e.ledger.ConsumeEnergy(cost)
	gain := int(math.Floor(score/100*20)) + technical/2
	p.DevelopmentProgress = min(maxProgress, p.DevelopmentProgress+gain)

	res := DevelopResult{ProgressGain: gain}
	if rules.Chance(e.rng, BugChance(technical, score)) {
		res.NewBugs = rules.Between(e.rng, 1, maxNewBugs)
		p.BugCount += res.NewBugs
	}
	e.ledger.AddSkillPoints(1)

	if p.DevelopmentProgress >= maxProgress {
		p.Stage = models.StageDebugging
		res.IsComplete = true
	}
	res.Progress = p.DevelopmentProgress
	return res, nil
}

// DebugResult is the outcome of one debugging session
type DebugResult struct {
	BugsFixed     int  `json:"bugsFixed"`
	ProgressGain  int  `json:"progressGain"`
	BugsRemaining int  `json:"bugsRemaining"`
	Progress      int  `json:"progress"`
	IsComplete    bool `json:"isComplete"`
}

// Debug fixes up to bugsToFix bugs. With no bugs left the session is a
// review pass worth one fix.
func (e *Engine) Debug(bugsToFix int) (DebugResult, error) {
	p, err := e.inStage(models.StageDebugging)
	if err != nil {
		return DebugResult{}, err
	}
	if bugsToFix < 1 {
		return DebugResult{}, fmt.Errorf("%w: bugs to fix must be at least 1", rules.ErrInvalidAmount)
	}
	cost := e.cat.Balance.DebugEnergyCost
	if err := e.requireEnergy("debugging", cost); err != nil {
		return DebugResult{}, err
	}
	e.ledger.ConsumeEnergy(cost)

	var res DebugResult
	if p.BugCount == 0 {
		res.ProgressGain = bugFixValue
	} else {
		res.BugsFixed = min(bugsToFix, p.BugCount)
		p.BugCount -= res.BugsFixed
		res.ProgressGain = res.BugsFixed * bugFixValue
	}
	p.DebuggingProgress = min(maxProgress, p.DebuggingProgress+res.ProgressGain)
	e.ledger.AddSkillPoints(1)

	if p.DebuggingProgress >= maxProgress && p.BugCount == 0 {
		p.Stage = models.StageReady
		res.IsComplete = true
	}
	res.BugsRemaining = p.BugCount
	res.Progress = p.DebuggingProgress
	return res, nil
}

// LaunchResult is the outcome of a launch
type LaunchResult struct {
	Product        models.Product `json:"product"`
	IsSuccessful   bool           `json:"isSuccessful"`
	SuccessChance  float64        `json:"successChance"`
	MonthlyRevenue int            `json:"monthlyRevenue"`
	ReputationGain int            `json:"reputationGain"`
	SkillPoints    int            `json:"skillPoints"`
}

// SuccessChance is the launch success probability, capped at limit.
func SuccessChance(quality, business int, limit float64) float64 {
	return math.Min(limit, float64(quality)/10*0.6+float64(business)/10*0.3+0.1)
}

// Launch releases a ready product and moves it into history.
func (e *Engine) Launch(now time.Time) (LaunchResult, error) {
	p, err := e.inStage(models.StageReady)
	if err != nil {
		return LaunchResult{}, err
	}
	kind, ok := e.cat.IdeaType(p.Type)
	if !ok {
		return LaunchResult{}, rules.NotFound("idea type", string(p.Type))
	}
	business := e.ledger.Attribute(models.AttributeBusiness)
	chance := SuccessChance(p.Quality, business, e.cat.Balance.LaunchSuccessCap)
	success := rules.Chance(e.rng, chance)

	u := e.rng.Float64()
	var revenue int
	if success {
		base := float64(kind.BaseRevenue) + float64(p.Quality*kind.RevenuePerQuality) + u*float64(kind.RevenueSpread)
		revenue = int(math.Floor(base * (1 + float64(business)/20)))
	} else {
		revenue = int(math.Floor(u * failureRevenue))
	}

	e.ledger.AddReputation(p.Quality)
	e.ledger.AddSkillPoints(launchSkillPts)
	if success {
		e.ledger.AddAttributePoints(launchAttrPoint, "product_launch_creativity")
	}

	launched := now
	p.Stage = models.StageLaunched
	p.LaunchedAt = &launched
	p.IsSuccessful = success
	p.MonthlyRevenue = revenue
	e.state.Products = append(e.state.Products, *p)
	e.state.CurrentDevelopment = nil

	return LaunchResult{
		Product:        *p,
		IsSuccessful:   success,
		SuccessChance:  chance,
		MonthlyRevenue: revenue,
		ReputationGain: p.Quality,
		SkillPoints:    launchSkillPts,
	}, nil
}

// AccrueDailyIncome pays one day of revenue from each successful product
// that earns today. It returns the total credited.
func (e *Engine) AccrueDailyIncome() int {
	total := 0
	for i := range e.state.Products {
		p := &e.state.Products[i]
		if !p.IsSuccessful || !rules.Chance(e.rng, e.cat.Balance.PassiveIncomeChance) {
			continue
		}
		daily := p.MonthlyRevenue / 30
		p.TotalRevenue += daily
		total += daily
	}
	if total > 0 {
		e.state.TotalEarnings += total
		e.ledger.AddMoney(total, "business_income")
	}
	return total
}

func (e *Engine) Statistics() models.BusinessStatistics {
	stats := models.BusinessStatistics{
		TotalProducts: len(e.state.Products),
		TotalEarnings: e.state.TotalEarnings,
	}
	for _, p := range e.state.Products {
		if p.IsSuccessful {
			stats.SuccessfulProducts++
			stats.MonthlyIncome += p.MonthlyRevenue
		}
		stats.BusinessValue += p.TotalRevenue
	}
	return stats
}
