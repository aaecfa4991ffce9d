// Package ledger owns the scalar resources of a character. Every other
// namespace changes money, energy, reputation and points through it so the
// bounds hold in one place.
package ledger

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"devlife/internal/models"
	"devlife/internal/rules"
)

const (
	maxEnergy     = models.MaxEnergy
	maxReputation = models.MaxReputation
)

// Achievement ids
const (
	AchievementMillionaire = "millionaire"
)

// Options tune the achievements the ledger unlocks on its own
type Options struct {
	MillionaireAt     int
	MillionairePoints int
	Now               func() time.Time
}

// Ledger mutates one character in place
type Ledger struct {
	c    *models.Character
	opts Options
}

// New binds a ledger to c.
func New(c *models.Character, opts Options) *Ledger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{c: c, opts: opts}
}

// Now is the clock records made through this ledger are stamped with.
func (l *Ledger) Now() time.Time { return l.opts.Now() }

// Character returns a copy of the current character.
func (l *Ledger) Character() models.Character { return *l.c }

func (l *Ledger) Money() int { return l.c.Money }
func (l *Ledger) Energy() int { return l.c.Energy }
func (l *Ledger) Reputation() int { return l.c.Reputation }
func (l *Ledger) SkillPoints() int { return l.c.SkillPoints }
func (l *Ledger) AttributePoints() int { return l.c.AvailableAttributePoints }
func (l *Ledger) Education() models.Education { return l.c.Education }
func (l *Ledger) Attribute(a models.Attribute) int { return l.c.Attributes.Get(a) }
func (l *Ledger) Attributes() models.Attributes { return l.c.Attributes }
func (l *Ledger) Progression() models.Progression { return l.c.Progression }

// AddMoney credits amount. Source is only logged.
func (l *Ledger) AddMoney(amount int, source string) {
	if amount <= 0 {
		return
	}
	if l.c.Money > math.MaxInt-amount {
		l.c.Money = math.MaxInt
	} else {
		l.c.Money += amount
	}
	slog.Debug("money added", "amount", amount, "source", source, "balance", l.c.Money)
	if l.opts.MillionaireAt > 0 && l.c.Money >= l.opts.MillionaireAt {
		l.UnlockAchievement(AchievementMillionaire, l.opts.MillionairePoints, "Reached one million in the bank")
	}
}

// SpendMoney deducts amount only if the full amount is available.
func (l *Ledger) SpendMoney(amount int, purpose string) bool {
	if amount <= 0 || l.c.Money < amount {
		return false
	}
	l.c.Money -= amount
	slog.Debug("money spent", "amount", amount, "purpose", purpose, "balance", l.c.Money)
	return true
}

// ConsumeEnergy lowers energy, flooring at zero, and reports whether any
// energy remains. Callers check the action's floor beforehand.
func (l *Ledger) ConsumeEnergy(amount int) bool {
	if amount <= 0 {
		return false
	}
	l.c.Energy = max(0, l.c.Energy-amount)
	return l.c.Energy > 0
}

// RestoreEnergy raises energy up to the cap.
func (l *Ledger) RestoreEnergy(amount int) {
	if amount <= 0 {
		return
	}
	l.c.Energy = min(maxEnergy, l.c.Energy+amount)
}

// AddReputation raises reputation up to the cap.
func (l *Ledger) AddReputation(amount int) {
	if amount <= 0 {
		return
	}
	l.c.Reputation = min(maxReputation, l.c.Reputation+amount)
}

func (l *Ledger) AddSkillPoints(amount int) {
	if amount <= 0 {
		return
	}
	l.c.SkillPoints += amount
}

// SpendSkillPoints deducts amount only if the full amount is available.
func (l *Ledger) SpendSkillPoints(amount int) bool {
	if amount <= 0 || l.c.SkillPoints < amount {
		return false
	}
	l.c.SkillPoints -= amount
	return true
}

// AddAttributePoints grants unspent attribute points. Source is only logged.
func (l *Ledger) AddAttributePoints(amount int, source string) {
	if amount <= 0 {
		return
	}
	l.c.AvailableAttributePoints += amount
	slog.Debug("attribute points added", "amount", amount, "source", source, "available", l.c.AvailableAttributePoints)
}

// Improve spends points to raise an attribute, reporting why it could not.
func (l *Ledger) Improve(attr models.Attribute, points int) error {
	if !attr.Valid() {
		return rules.NotFound("attribute", string(attr))
	}
	if points <= 0 {
		return fmt.Errorf("%w: points must be positive", rules.ErrInvalidAmount)
	}
	if l.c.AvailableAttributePoints < points {
		return fmt.Errorf("%w: have %d, need %d", rules.ErrInsufficientAttributePoints, l.c.AvailableAttributePoints, points)
	}
	current := l.c.Attributes.Get(attr)
	if current+points > models.AttributeMax {
		return fmt.Errorf("%w: %s is %d", rules.ErrAttributeMaxed, attr, current)
	}
	l.c.AvailableAttributePoints -= points
	l.c.Attributes.Set(attr, current+points)
	return nil
}

// ImproveAttribute is the boolean gate form of Improve.
func (l *Ledger) ImproveAttribute(attr models.Attribute, points int) bool {
	return l.Improve(attr, points) == nil
}

// SetEducation overwrites the education level. Callers enforce ordering.
func (l *Ledger) SetEducation(level models.Education) {
	l.c.Education = level
}

// SetCurrentJob records the active job id, or clears it when id is empty.
func (l *Ledger) SetCurrentJob(id string) {
	if id == "" {
		l.c.CurrentJobID = nil
		return
	}
	l.c.CurrentJobID = &id
}

// RecordEducationBonus grants exam points and remembers where they came from.
func (l *Ledger) RecordEducationBonus(level models.Education, points, day int) {
	l.c.Progression.EducationBonuses = append(l.c.Progression.EducationBonuses, models.EducationBonus{
		Education: level,
		Points:    points,
		Day:       day,
	})
	l.AddAttributePoints(points, "education_"+string(level))
}

// GainJobExperience accumulates fractional experience toward attr and grants
// one attribute point each time the running total crosses an integer.
func (l *Ledger) GainJobExperience(attr models.Attribute, amount float64) int {
	if amount <= 0 {
		return 0
	}
	if l.c.Progression.JobExperience == nil {
		l.c.Progression.JobExperience = map[models.Attribute]float64{}
	}
	before := l.c.Progression.JobExperience[attr]
	after := before + amount
	l.c.Progression.JobExperience[attr] = after
	gained := int(math.Floor(after)) - int(math.Floor(before))
	if gained > 0 {
		l.AddAttributePoints(gained, "job_experience_"+string(attr))
	}
	return gained
}

// UnlockAchievement records id once and grants its points. It reports
// whether the achievement was newly unlocked.
func (l *Ledger) UnlockAchievement(id string, points int, description string) bool {
	if l.c.Progression.HasAchievement(id) {
		return false
	}
	l.c.Progression.Achievements = append(l.c.Progression.Achievements, models.Achievement{
		ID:            id,
		Description:   description,
		PointsAwarded: points,
		UnlockedAt:    l.opts.Now(),
	})
	l.AddAttributePoints(points, "achievement_"+id)
	slog.Info("achievement unlocked", "id", id)
	return true
}
