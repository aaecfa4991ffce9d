// Package catalog holds the static game content: the skill tree, the job
// market, idea types, housing, activities, exams and the balance numbers
// every rule reads. The default document is embedded; an override file is
// decoded on top of it.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"devlife/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// IdeaType is one product ambition tier
type IdeaType struct {
	Key               models.IdeaType `yaml:"key" json:"key"`
	MinQuality        int             `yaml:"min_quality" json:"minQuality"`
	BaseRevenue       int             `yaml:"base_revenue" json:"baseRevenue"`
	RevenuePerQuality int             `yaml:"revenue_per_quality" json:"revenuePerQuality"`
	RevenueSpread     int             `yaml:"revenue_spread" json:"revenueSpread"`
	Names             []string        `yaml:"names" json:"names"`
}

// HousingOption is a purchasable home
type HousingOption struct {
	Type            string `yaml:"type" json:"type"`
	Name            string `yaml:"name" json:"name"`
	Price           int    `yaml:"price" json:"price"`
	EnergyBonus     int    `yaml:"energy_bonus" json:"energyBonus"`
	ReputationBonus int    `yaml:"reputation_bonus" json:"reputationBonus"`
}

// DailyCost of living in the home once bought
func (h HousingOption) DailyCost() int { return h.Price / 100 }

// Activity is a self-improvement action that grants attribute points
type Activity struct {
	Key             string `yaml:"key" json:"key"`
	Name            string `yaml:"name" json:"name"`
	Money           int    `yaml:"money" json:"money"`
	Energy          int    `yaml:"energy" json:"energy"`
	AttributePoints int    `yaml:"attribute_points" json:"attributePoints"`
}

// Exam grants the next education level
type Exam struct {
	Level           models.Education `yaml:"level" json:"level"`
	Cost            int              `yaml:"cost" json:"cost"`
	Reputation      int              `yaml:"reputation" json:"reputation"`
	AttributePoints int              `yaml:"attribute_points" json:"attributePoints"`
}

// Balance holds the tunable numbers
type Balance struct {
	InterviewChance     float64       `yaml:"interview_chance"`
	InterviewDelay      time.Duration `yaml:"interview_delay"`
	InterviewLead       time.Duration `yaml:"interview_lead"`
	WorkEnergyFloor     int           `yaml:"work_energy_floor"`
	WorkEnergyCost      int           `yaml:"work_energy_cost"`
	FireThreshold       float64       `yaml:"fire_threshold"`
	FireGraceDays       int           `yaml:"fire_grace_days"`
	DevelopEnergyCost   int           `yaml:"develop_energy_cost"`
	DebugEnergyCost     int           `yaml:"debug_energy_cost"`
	IdeaEnergyCost      int           `yaml:"idea_energy_cost"`
	LaunchSuccessCap    float64       `yaml:"launch_success_cap"`
	PassiveIncomeChance float64       `yaml:"passive_income_chance"`
	DailyEnergyDecay    int           `yaml:"daily_energy_decay"`
	EatCost             int           `yaml:"eat_cost"`
	EatEnergy           int           `yaml:"eat_energy"`
	PlayCost            int           `yaml:"play_cost"`
	PlayEnergy          int           `yaml:"play_energy"`
	SleepEnergy         int           `yaml:"sleep_energy"`
	MillionaireAt       int           `yaml:"millionaire_threshold"`
	MillionairePoints   int           `yaml:"millionaire_points"`
}

// Catalog is the immutable content shared by every session
type Catalog struct {
	Categories      []models.SkillCategory      `yaml:"categories"`
	Skills          []models.Skill              `yaml:"skills"`
	Jobs            []models.Job                `yaml:"jobs"`
	TrackAttributes map[string]models.Attribute `yaml:"track_attributes"`
	IdeaTypes       []IdeaType                  `yaml:"idea_types"`
	IdeaSkillPool   []string                    `yaml:"idea_skill_pool"`
	Housing         []HousingOption             `yaml:"housing"`
	Activities      []Activity                  `yaml:"activities"`
	Exams           []Exam                      `yaml:"exams"`
	Balance         Balance                     `yaml:"balance"`

	skillIndex map[string]int
	jobIndex   map[string]int
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(nil)
}

// Load reads the embedded catalog and decodes the file at path over it.
// An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes override over the embedded default document and validates
// the result.
func Parse(override []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultDocument, &c); err != nil {
		return nil, fmt.Errorf("decode default catalog: %w", err)
	}
	if len(override) > 0 {
		if err := yaml.Unmarshal(override, &c); err != nil {
			return nil, fmt.Errorf("decode catalog override: %w", err)
		}
	}
	for i := range c.Skills {
		if c.Skills[i].Prerequisites == nil {
			c.Skills[i].Prerequisites = []string{}
		}
	}
	c.index()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() {
	c.skillIndex = make(map[string]int, len(c.Skills))
	for i, s := range c.Skills {
		c.skillIndex[s.Name] = i
	}
	c.jobIndex = make(map[string]int, len(c.Jobs))
	for i, j := range c.Jobs {
		c.jobIndex[j.ID] = i
	}
}

// Validate checks references between sections and that the skill graph is acyclic
func (c *Catalog) Validate() error {
	if len(c.skillIndex) != len(c.Skills) {
		return fmt.Errorf("catalog: duplicate skill names")
	}
	if len(c.jobIndex) != len(c.Jobs) {
		return fmt.Errorf("catalog: duplicate job ids")
	}
	for _, s := range c.Skills {
		if s.Cost < 0 {
			return fmt.Errorf("catalog: skill %q has negative cost", s.Name)
		}
		for _, p := range s.Prerequisites {
			if _, ok := c.skillIndex[p]; !ok {
				return fmt.Errorf("catalog: skill %q requires unknown skill %q", s.Name, p)
			}
		}
	}
	if err := c.checkAcyclic(); err != nil {
		return err
	}
	for _, j := range c.Jobs {
		if !j.Requirements.Education.Valid() {
			return fmt.Errorf("catalog: job %q has unknown education %q", j.ID, j.Requirements.Education)
		}
		for _, s := range j.Requirements.Skills {
			if _, ok := c.skillIndex[s]; !ok {
				return fmt.Errorf("catalog: job %q requires unknown skill %q", j.ID, s)
			}
		}
	}
	for track, attr := range c.TrackAttributes {
		if !attr.Valid() {
			return fmt.Errorf("catalog: track %q trains unknown attribute %q", track, attr)
		}
	}
	if len(c.IdeaTypes) == 0 {
		return fmt.Errorf("catalog: no idea types")
	}
	lowest := c.IdeaTypes[0].MinQuality
	for _, t := range c.IdeaTypes {
		if len(t.Names) == 0 {
			return fmt.Errorf("catalog: idea type %q has no names", t.Key)
		}
		lowest = min(lowest, t.MinQuality)
	}
	if lowest > 0 {
		return fmt.Errorf("catalog: no idea type accepts quality 0")
	}
	if len(c.IdeaSkillPool) == 0 {
		return fmt.Errorf("catalog: empty idea skill pool")
	}
	for _, s := range c.IdeaSkillPool {
		if _, ok := c.skillIndex[s]; !ok {
			return fmt.Errorf("catalog: idea skill pool names unknown skill %q", s)
		}
	}
	for _, e := range c.Exams {
		if !e.Level.Valid() || e.Level == models.EducationNone {
			return fmt.Errorf("catalog: exam for invalid level %q", e.Level)
		}
	}
	return nil
}

func (c *Catalog) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.Skills))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("catalog: prerequisite cycle through %q (%v)", name, append(path, name))
		case done:
			return nil
		}
		state[name] = visiting
		for _, p := range c.Skills[c.skillIndex[name]].Prerequisites {
			if err := visit(p, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, s := range c.Skills {
		if err := visit(s.Name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Skill returns a skill by name
func (c *Catalog) Skill(name string) (models.Skill, bool) {
	i, ok := c.skillIndex[name]
	if !ok {
		return models.Skill{}, false
	}
	return c.Skills[i], true
}

// Job returns a job by ID
func (c *Catalog) Job(id string) (models.Job, bool) {
	i, ok := c.jobIndex[id]
	if !ok {
		return models.Job{}, false
	}
	return c.Jobs[i], true
}

// StartingSkills lists the skills every new save begins with.
func (c *Catalog) StartingSkills() []string {
	var out []string
	for _, s := range c.Skills {
		if s.StartsLearned {
			out = append(out, s.Name)
		}
	}
	return out
}

// TrackAttribute returns the attribute a job track trains, technical by default.
func (c *Catalog) TrackAttribute(track string) models.Attribute {
	if attr, ok := c.TrackAttributes[track]; ok {
		return attr
	}
	return models.AttributeTechnical
}

// IdeaType returns the tier with the given key
func (c *Catalog) IdeaType(key models.IdeaType) (IdeaType, bool) {
	for _, t := range c.IdeaTypes {
		if t.Key == key {
			return t, true
		}
	}
	return IdeaType{}, false
}

// HousingOption returns the home with the given type
func (c *Catalog) HousingOption(kind string) (HousingOption, bool) {
	for _, h := range c.Housing {
		if h.Type == kind {
			return h, true
		}
	}
	return HousingOption{}, false
}

// Activity returns the activity with the given key
func (c *Catalog) Activity(key string) (Activity, bool) {
	for _, a := range c.Activities {
		if a.Key == key {
			return a, true
		}
	}
	return Activity{}, false
}

// Exam returns the exam that grants level
func (c *Catalog) Exam(level models.Education) (Exam, bool) {
	for _, e := range c.Exams {
		if e.Level == level {
			return e, true
		}
	}
	return Exam{}, false
}

// CategoryName returns the display name for a category key.
func (c *Catalog) CategoryName(key string) string {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat.Name
		}
	}
	return key
}
