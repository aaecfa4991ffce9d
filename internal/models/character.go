package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Education level, strictly ordered none < high_school < college < university < academy
type Education string

const (
	EducationNone       Education = "none"
	EducationHighSchool Education = "high_school"
	EducationCollege    Education = "college"
	EducationUniversity Education = "university"
	EducationAcademy    Education = "academy"
)

// EducationOrder lists every level from lowest to highest.
var EducationOrder = []Education{
	EducationNone,
	EducationHighSchool,
	EducationCollege,
	EducationUniversity,
	EducationAcademy,
}

// Rank returns the position of e in EducationOrder, or -1 for an unknown level.
func (e Education) Rank() int {
	for i, level := range EducationOrder {
		if level == e {
			return i
		}
	}
	return -1
}

// Valid reports whether e is a known level.
func (e Education) Valid() bool { return e.Rank() >= 0 }

// AtLeast reports whether e meets the minimum level.
func (e Education) AtLeast(minimum Education) bool {
	return e.Rank() >= minimum.Rank()
}

// Next returns the level directly above e.
func (e Education) Next() (Education, bool) {
	r := e.Rank()
	if r < 0 || r+1 >= len(EducationOrder) {
		return "", false
	}
	return EducationOrder[r+1], true
}

// Attribute names one of the four character attributes
type Attribute string

const (
	AttributeTechnical  Attribute = "technical"
	AttributeBusiness   Attribute = "business"
	AttributeSocial     Attribute = "social"
	AttributeCreativity Attribute = "creativity"
)

// AllAttributes in display order
var AllAttributes = []Attribute{AttributeTechnical, AttributeBusiness, AttributeSocial, AttributeCreativity}

// Valid reports whether a is a known attribute.
func (a Attribute) Valid() bool {
	switch a {
	case AttributeTechnical, AttributeBusiness, AttributeSocial, AttributeCreativity:
		return true
	}
	return false
}

// Attribute bounds
const (
	AttributeMin = 1
	AttributeMax = 10

	// Creation-time allocation: CreationPoints spread across the four
	// attributes, each within [AttributeMin, CreationAttributeMax].
	CreationPoints       = 10
	CreationAttributeMax = 7

	MaxNameLength = 30
)

// Attributes are the four character attributes, each in [1,10]
type Attributes struct {
	Technical  int `json:"technical"`
	Business   int `json:"business"`
	Social     int `json:"social"`
	Creativity int `json:"creativity"`
}

// Get returns the value of a, or 0 for an unknown attribute.
func (a Attributes) Get(attr Attribute) int {
	switch attr {
	case AttributeTechnical:
		return a.Technical
	case AttributeBusiness:
		return a.Business
	case AttributeSocial:
		return a.Social
	case AttributeCreativity:
		return a.Creativity
	}
	return 0
}

// Set assigns v to attr. It reports false for an unknown attribute.
func (a *Attributes) Set(attr Attribute, v int) bool {
	switch attr {
	case AttributeTechnical:
		a.Technical = v
	case AttributeBusiness:
		a.Business = v
	case AttributeSocial:
		a.Social = v
	case AttributeCreativity:
		a.Creativity = v
	default:
		return false
	}
	return true
}

// Sum of all four attributes
func (a Attributes) Sum() int {
	return a.Technical + a.Business + a.Social + a.Creativity
}

// EducationBonus records attribute points granted for passing an exam
type EducationBonus struct {
	Education Education `json:"education"`
	Points    int       `json:"points"`
	Day       int       `json:"day"`
}

// Achievement unlocked once per save
type Achievement struct {
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	PointsAwarded int       `json:"pointsAwarded"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// Progression tracks where attribute points came from
type Progression struct {
	EducationBonuses []EducationBonus      `json:"educationBonuses"`
	JobExperience    map[Attribute]float64 `json:"jobExperience"`
	Achievements     []Achievement         `json:"achievements"`
}

// HasAchievement reports whether id has been unlocked.
func (p Progression) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Character is the single mutable subject of the simulation
type Character struct {
	Name                     string      `json:"name"`
	Age                      int         `json:"age"`
	Money                    int         `json:"money"`
	Reputation               int         `json:"reputation"`
	Energy                   int         `json:"energy"`
	SkillPoints              int         `json:"skillPoints"`
	Education                Education   `json:"education"`
	CurrentJobID             *string     `json:"currentJobId"`
	Attributes               Attributes  `json:"attributes"`
	AvailableAttributePoints int         `json:"availableAttributePoints"`
	Progression              Progression `json:"progression"`
}

// Resource caps
const (
	MaxEnergy     = 100
	MaxReputation = 100
)

// CheckBounds reports the first resource outside its range.
func (c Character) CheckBounds() error {
	switch {
	case c.Money < 0:
		return fmt.Errorf("money %d is negative", c.Money)
	case c.Energy < 0 || c.Energy > MaxEnergy:
		return fmt.Errorf("energy %d outside [0,%d]", c.Energy, MaxEnergy)
	case c.Reputation < 0 || c.Reputation > MaxReputation:
		return fmt.Errorf("reputation %d outside [0,%d]", c.Reputation, MaxReputation)
	case c.SkillPoints < 0:
		return fmt.Errorf("skill points %d are negative", c.SkillPoints)
	case c.AvailableAttributePoints < 0:
		return fmt.Errorf("attribute points %d are negative", c.AvailableAttributePoints)
	case !c.Education.Valid():
		return fmt.Errorf("unknown education %q", c.Education)
	}
	for _, attr := range AllAttributes {
		if v := c.Attributes.Get(attr); v < AttributeMin || v > AttributeMax {
			return fmt.Errorf("%s %d outside [%d,%d]", attr, v, AttributeMin, AttributeMax)
		}
	}
	return nil
}

// DefaultCharacter returns the starting character.
func DefaultCharacter() Character {
	return Character{
		Name:        "Alex Developer",
		Age:         21,
		Money:       1500,
		Reputation:  10,
		Energy:      75,
		SkillPoints: 12,
		Education:   EducationNone,
		Attributes: Attributes{
			Technical:  3,
			Business:   2,
			Social:     2,
			Creativity: 3,
		},
		Progression: Progression{
			EducationBonuses: []EducationBonus{},
			JobExperience:    map[Attribute]float64{},
			Achievements:     []Achievement{},
		},
	}
}

// CharacterConfig is the player's choices on the creation screen
type CharacterConfig struct {
	Name       string     `json:"name"`
	Age        int        `json:"age,omitempty"`
	Attributes Attributes `json:"attributes"`
}

// Validate checks the name and the attribute allocation
func (c *CharacterConfig) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	if c.Age < 0 {
		return fmt.Errorf("age must not be negative")
	}
	for _, attr := range AllAttributes {
		v := c.Attributes.Get(attr)
		if v < AttributeMin || v > CreationAttributeMax {
			return fmt.Errorf("%s must be between %d and %d, got %d", attr, AttributeMin, CreationAttributeMax, v)
		}
	}
	if sum := c.Attributes.Sum(); sum != CreationPoints {
		return fmt.Errorf("attributes must total %d points, got %d", CreationPoints, sum)
	}
	return nil
}

// NewCharacter builds a starting character from a validated config.
func NewCharacter(config CharacterConfig) (Character, error) {
	if err := config.Validate(); err != nil {
		return Character{}, err
	}
	c := DefaultCharacter()
	c.Name = strings.TrimSpace(config.Name)
	if config.Age > 0 {
		c.Age = config.Age
	}
	c.Attributes = config.Attributes
	return c, nil
}
