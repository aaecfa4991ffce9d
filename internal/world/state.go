package world

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"devlife/internal/business"
	"devlife/internal/career"
	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/life"
	"devlife/internal/models"
	"devlife/internal/rules"
	"devlife/internal/skilltree"
	"devlife/internal/storage"
)

// Options configures a Session. Catalog and Store are required.
type Options struct {
	Catalog *catalog.Catalog
	Store   *storage.Store
	Rand    rules.Rand
	Now     func() time.Time

	// OnDecisions receives interview decisions after they are committed.
	OnDecisions func([]career.Decision)
}

// Session owns one save slot and serializes every action on it
type Session struct {
	mu           sync.Mutex
	cat          *catalog.Catalog
	store        *storage.Store
	rng          rules.Rand
	now          func() time.Time
	onDecisions  func([]career.Decision)
	slot         string
	game         *models.GameState
	lastAccessed time.Time
}

// NewSession returns a session holding a fresh default game on the default
// slot. Call Load to read a stored slot.
func NewSession(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rules.NewRand(uint64(now().UnixNano()))
	}
	return &Session{
		cat:          opts.Catalog,
		store:        opts.Store,
		rng:          rng,
		now:          now,
		onDecisions:  opts.OnDecisions,
		game:         models.NewGameState(opts.Catalog.StartingSkills()),
		lastAccessed: now(),
	}
}

// bound holds the engines for one call, all pointing at the session state.
type bound struct {
	ledger    *ledger.Ledger
	skills    *skilltree.Tree
	career    *career.Engine
	business  *business.Engine
	life      *life.Engine
	decisions []career.Decision
}

func (s *Session) bind() *bound {
	g := s.game
	bal := s.cat.Balance
	l := ledger.New(&g.Character, ledger.Options{
		MillionaireAt:     bal.MillionaireAt,
		MillionairePoints: bal.MillionairePoints,
		Now:               s.now,
	})
	tree := skilltree.New(s.cat, &g.Skills, l)
	return &bound{
		ledger:   l,
		skills:   tree,
		career:   career.New(s.cat, &g.Career, l, tree, s.rng),
		business: business.New(s.cat, &g.Business, l, tree, s.rng),
		life:     life.New(s.cat, &g.Life, l),
	}
}

// mutate runs fn under the lock after resolving due interviews, and commits
// when fn succeeds. Interviews decided on the way are committed and reported
// even when fn is rejected; fn itself leaves no trace then.
func (s *Session) mutate(fn func(b *bound) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = s.now()

	if !s.game.App.CharacterCreated {
		return rules.ErrNoCharacter
	}
	b := s.bind()
	b.decisions = b.career.ResolvePending(s.now())
	err := fn(b)
	if err != nil && len(b.decisions) == 0 {
		return err
	}
	if cerr := s.commit(); cerr != nil {
		return cerr
	}
	if len(b.decisions) > 0 && s.onDecisions != nil {
		s.onDecisions(b.decisions)
	}
	return err
}

func act[T any](s *Session, fn func(b *bound) (T, error)) (T, error) {
	var res T
	err := s.mutate(func(b *bound) error {
		var err error
		res, err = fn(b)
		return err
	})
	return res, err
}

// Touch updates the last access time
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = s.now()
}

// LastAccessed returns the last access time
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// Slot returns the active save slot
func (s *Session) Slot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot
}

// Catalog returns the content the session plays against
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Load switches the session to slot and reads its snapshots. It returns the
// namespaces that fell back to defaults.
func (s *Session) Load(slot string) ([]string, error) {
	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, fallbacks := loadGame(s.store, slot, s.cat.StartingSkills())
	s.slot = slot
	s.game = g
	s.lastAccessed = s.now()
	return fallbacks, nil
}

// Discard deletes the slot's snapshots and clears the game in memory, so
// actions still reaching this session fail with ErrNoCharacter.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := DeleteSlot(s.store, s.slot); err != nil {
		return err
	}
	s.game = models.NewGameState(s.cat.StartingSkills())
	return nil
}

// Commit writes every namespace snapshot of the active slot.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit()
}

func (s *Session) commit() error {
	if err := saveGame(s.store, s.slot, s.game); err != nil {
		return fmt.Errorf("save slot %q: %w", s.slot, err)
	}
	return nil
}

// State returns a deep copy of the game.
func (s *Session) State() models.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGame(s.game)
}

func cloneGame(g *models.GameState) models.GameState {
	var out models.GameState
	data, err := json.Marshal(g)
	if err == nil {
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		panic(fmt.Sprintf("clone game state: %v", err))
	}
	return out
}

// read runs fn under the lock with engines bound to the state. Queries
// never resolve interviews or write.
func (s *Session) read(fn func(b *bound)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.bind())
}

// NewGame replaces the active slot with a new character built from config.
func (s *Session) NewGame(config models.CharacterConfig) (models.Character, error) {
	c, err := models.NewCharacter(config)
	if err != nil {
		return models.Character{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := models.NewGameState(s.cat.StartingSkills())
	g.Character = c
	g.App.CharacterCreated = true
	s.game = g
	s.lastAccessed = s.now()
	if err := s.commit(); err != nil {
		return models.Character{}, err
	}
	return c, nil
}

// Reset wipes the active slot to defaults and writes them.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = models.NewGameState(s.cat.StartingSkills())
	return s.commit()
}

// ResolveInterviews decides every application whose delay has passed.
func (s *Session) ResolveInterviews() ([]career.Decision, error) {
	var out []career.Decision
	err := s.mutate(func(b *bound) error {
		out = b.decisions
		return nil
	})
	return out, err
}

// LearnSkill spends skill points on a learnable skill.
func (s *Session) LearnSkill(name string) (skilltree.LearnResult, error) {
	return act(s, func(b *bound) (skilltree.LearnResult, error) {
		return b.skills.Learn(name)
	})
}

// ImproveAttribute spends available attribute points.
func (s *Session) ImproveAttribute(attr models.Attribute, points int) (models.Attributes, error) {
	return act(s, func(b *bound) (models.Attributes, error) {
		if err := b.ledger.Improve(attr, points); err != nil {
			return models.Attributes{}, err
		}
		return b.ledger.Attributes(), nil
	})
}

// ApplyForJob records an application; the interview is decided later.
func (s *Session) ApplyForJob(jobID string) (models.Application, error) {
	return act(s, func(b *bound) (models.Application, error) {
		return b.career.ApplyForJob(jobID, s.now())
	})
}

// AcceptJob takes a position from the catalog.
func (s *Session) AcceptJob(jobID string) (models.Job, error) {
	return act(s, func(b *bound) (models.Job, error) {
		return b.career.AcceptJob(jobID, s.game.App.Day)
	})
}

// Work completes one work day at the current position.
func (s *Session) Work() (career.WorkDayResult, error) {
	return act(s, func(b *bound) (career.WorkDayResult, error) {
		return b.career.CompleteWorkDay(s.game.App.Day)
	})
}

// QuitJob leaves the current position.
func (s *Session) QuitJob() (models.JobRecord, error) {
	return act(s, func(b *bound) (models.JobRecord, error) {
		return b.career.QuitJob(s.game.App.Day)
	})
}

// GenerateIdea spends energy on a new product idea.
func (s *Session) GenerateIdea() (models.Idea, error) {
	return act(s, func(b *bound) (models.Idea, error) {
		cost := s.cat.Balance.IdeaEnergyCost
		if b.ledger.Energy() < cost {
			return models.Idea{}, fmt.Errorf("%w: brainstorming needs %d, have %d", rules.ErrInsufficientEnergy, cost, b.ledger.Energy())
		}
		b.ledger.ConsumeEnergy(cost)
		return b.business.GenerateIdea(s.now()), nil
	})
}

// StartDevelopment turns a backlog idea into the product in development.
func (s *Session) StartDevelopment(ideaID string) (models.Product, error) {
	return act(s, func(b *bound) (models.Product, error) {
		return b.business.StartDevelopment(ideaID, s.now())
	})
}

// Develop advances the product in development.
func (s *Session) Develop(performanceScore float64) (business.DevelopResult, error) {
	return act(s, func(b *bound) (business.DevelopResult, error) {
		return b.business.AdvanceDevelopment(performanceScore)
	})
}

// Debug fixes up to bugs bugs on the product being debugged.
func (s *Session) Debug(bugs int) (business.DebugResult, error) {
	return act(s, func(b *bound) (business.DebugResult, error) {
		return b.business.Debug(bugs)
	})
}

// Launch releases the ready product.
func (s *Session) Launch() (business.LaunchResult, error) {
	return act(s, func(b *bound) (business.LaunchResult, error) {
		return b.business.Launch(s.now())
	})
}

// Eat buys a meal.
func (s *Session) Eat() (life.EnergyResult, error) {
	return act(s, func(b *bound) (life.EnergyResult, error) {
		return b.life.EatFood()
	})
}

// Play buys an evening of games.
func (s *Session) Play() (life.EnergyResult, error) {
	return act(s, func(b *bound) (life.EnergyResult, error) {
		return b.life.PlayGames()
	})
}

// Sleep restores energy for free.
func (s *Session) Sleep() (life.EnergyResult, error) {
	return act(s, func(b *bound) (life.EnergyResult, error) {
		return b.life.Sleep(), nil
	})
}

// UpgradeHousing moves to another housing option.
func (s *Session) UpgradeHousing(kind string) (models.Housing, error) {
	return act(s, func(b *bound) (models.Housing, error) {
		return b.life.UpgradeHousing(kind)
	})
}

// Activity runs a self-improvement activity.
func (s *Session) Activity(key string) (life.ActivityResult, error) {
	return act(s, func(b *bound) (life.ActivityResult, error) {
		return b.life.DoActivity(key)
	})
}

// TakeExam buys the next education level.
func (s *Session) TakeExam(level models.Education) (life.ExamResult, error) {
	return act(s, func(b *bound) (life.ExamResult, error) {
		return b.life.TakeExam(level, s.game.App.Day)
	})
}

// Skills lists every catalog skill with learned and learnable flags.
func (s *Session) Skills() []models.SkillView {
	var out []models.SkillView
	s.read(func(b *bound) { out = b.skills.Views() })
	return out
}

// SkillCounts returns learned skills per category.
func (s *Session) SkillCounts() map[string]int {
	var out map[string]int
	s.read(func(b *bound) { out = b.skills.CountsByCategory() })
	return out
}

// Jobs lists catalog jobs. With eligibleOnly only jobs whose requirements
// are met are returned.
func (s *Session) Jobs(eligibleOnly bool) []models.Job {
	var out []models.Job
	s.read(func(b *bound) {
		if eligibleOnly {
			out = b.career.EligibleJobs()
		} else {
			out = b.career.AvailableJobs()
		}
	})
	return out
}

// CareerStatistics summarizes the career namespace.
func (s *Session) CareerStatistics() models.CareerStatistics {
	var out models.CareerStatistics
	s.read(func(b *bound) { out = b.career.Statistics() })
	return out
}

// BusinessStatistics summarizes the business namespace.
func (s *Session) BusinessStatistics() models.BusinessStatistics {
	var out models.BusinessStatistics
	s.read(func(b *bound) { out = b.business.Statistics() })
	return out
}
