// Package career runs the job lifecycle: applications, deferred interview
// decisions, acceptance, daily work with performance and pay, and leaving a
// position by quitting or being fired.
package career

import (
	"fmt"
	"math"
	"time"

	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/models"
	"devlife/internal/rules"
	"devlife/internal/skilltree"
)

const (
	emaAlpha = 0.2

	// per day of work, scaled by performance
	experiencePerDay = 0.2
)

// Engine binds the job catalog to one save's career state
type Engine struct {
	cat    *catalog.Catalog
	state  *models.CareerState
	ledger *ledger.Ledger
	skills *skilltree.Tree
	rng    rules.Rand
}

// New returns an engine for one save.
func New(cat *catalog.Catalog, state *models.CareerState, l *ledger.Ledger, skills *skilltree.Tree, rng rules.Rand) *Engine {
	return &Engine{cat: cat, state: state, ledger: l, skills: skills, rng: rng}
}

// PerformanceScore is the 0..100 score for one day of work.
func PerformanceScore(technical, energy, social int) float64 {
	return 100 * (0.6*float64(technical)/10 + 0.25*float64(energy)/100 + 0.15*float64(social)/10)
}

func payMultiplier(score float64) float64 {
	switch {
	case score > 75:
		return 1.2
	case score < 40:
		return 0.6
	}
	return 1.0
}

func (e *Engine) findApplication(jobID string) int {
	for i, a := range e.state.Applications {
		if a.JobID == jobID {
			return i
		}
	}
	return -1
}

// checkRequirements tests education, then reputation, then skills.
func (e *Engine) checkRequirements(job models.Job) error {
	req := job.Requirements
	if !e.ledger.Education().AtLeast(req.Education) {
		return fmt.Errorf("%w: %s needs %s, have %s", rules.ErrEducationTooLow, job.ID, req.Education, e.ledger.Education())
	}
	if e.ledger.Reputation() < req.Reputation {
		return fmt.Errorf("%w: %s needs %d, have %d", rules.ErrReputationTooLow, job.ID, req.Reputation, e.ledger.Reputation())
	}
	if missing := e.skills.Missing(req.Skills); len(missing) > 0 {
		return fmt.Errorf("%w: %s needs %v", rules.ErrMissingSkills, job.ID, missing)
	}
	return nil
}

// ApplyForJob records an application whose interview decision runs once the
// configured delay has passed.
func (e *Engine) ApplyForJob(jobID string, now time.Time) (models.Application, error) {
	job, ok := e.cat.Job(jobID)
	if !ok {
		return models.Application{}, rules.NotFound("job", jobID)
	}
	if e.findApplication(jobID) >= 0 {
		return models.Application{}, fmt.Errorf("%w: %s", rules.ErrAlreadyApplied, jobID)
	}
	if err := e.checkRequirements(job); err != nil {
		return models.Application{}, err
	}
	app := models.Application{
		JobID:     jobID,
		AppliedAt: now,
		Status:    models.ApplicationApplied,
		DecideAt:  now.Add(e.cat.Balance.InterviewDelay),
	}
	e.state.Applications = append(e.state.Applications, app)
	return app, nil
}

// Decision is the outcome of one deferred interview evaluation
type Decision struct {
	JobID  string                   `json:"jobId"`
	Status models.ApplicationStatus `json:"status"`
}

// ResolvePending evaluates every due application exactly once.
func (e *Engine) ResolvePending(now time.Time) []Decision {
	var out []Decision
	for i := range e.state.Applications {
		app := &e.state.Applications[i]
		if app.Status != models.ApplicationApplied || app.DecideAt.After(now) {
			continue
		}
		if rules.Chance(e.rng, e.cat.Balance.InterviewChance) {
			app.Status = models.ApplicationInterviewScheduled
			e.state.Interviews = append(e.state.Interviews, models.Interview{
				JobID:       app.JobID,
				ScheduledAt: now.Add(e.cat.Balance.InterviewLead),
			})
		} else {
			app.Status = models.ApplicationRejected
		}
		out = append(out, Decision{JobID: app.JobID, Status: app.Status})
	}
	return out
}

// Pending returns the applications still awaiting a decision.
func (e *Engine) Pending() []models.Application {
	var out []models.Application
	for _, a := range e.state.Applications {
		if a.Status == models.ApplicationApplied {
			out = append(out, a)
		}
	}
	return out
}

// AcceptJob makes jobID the active position. An existing position is closed
// into history first.
func (e *Engine) AcceptJob(jobID string, day int) (models.Job, error) {
	job, ok := e.cat.Job(jobID)
	if !ok {
		return models.Job{}, rules.NotFound("job", jobID)
	}
	if e.state.CurrentPosition != nil {
		e.closePosition(day, models.EndReplaced)
	}
	e.state.CurrentPosition = &job
	e.state.StartedDay = day
	e.state.WorkDaysCompleted = 0
	e.state.PerformanceRating = models.BaselinePerformance
	e.ledger.SetCurrentJob(job.ID)
	if i := e.findApplication(jobID); i >= 0 {
		e.state.Applications[i].Status = models.ApplicationAccepted
	}
	return job, nil
}

// WorkDayResult is the outcome of one completed work day
type WorkDayResult struct {
	PerformanceScore      float64 `json:"performanceScore"`
	PerformanceRating     float64 `json:"performanceRating"`
	DailyPay              int     `json:"dailyPay"`
	SkillPointsEarned     int     `json:"skillPointsEarned"`
	AttributePointsEarned int     `json:"attributePointsEarned"`
	Fired                 bool    `json:"fired"`
}

// CompleteWorkDay works one day at the active position.
func (e *Engine) CompleteWorkDay(day int) (WorkDayResult, error) {
	job := e.state.CurrentPosition
	if job == nil {
		return WorkDayResult{}, rules.ErrNoActivePosition
	}
	b := e.cat.Balance
	if e.ledger.Energy() < b.WorkEnergyFloor {
		return WorkDayResult{}, fmt.Errorf("%w: work needs %d, have %d", rules.ErrInsufficientEnergy, b.WorkEnergyFloor, e.ledger.Energy())
	}

	technical := e.ledger.Attribute(models.AttributeTechnical)
	score := PerformanceScore(technical, e.ledger.Energy(), e.ledger.Attribute(models.AttributeSocial))
	rating := e.state.PerformanceRating*(1-emaAlpha) + score*emaAlpha

	pay := int(math.Floor(float64(job.Salary) * payMultiplier(score)))
	points := technical / 4
	if score > 80 {
		points += 2
	} else {
		points++
	}

	attr := e.cat.TrackAttribute(job.Track)
	gained := e.ledger.GainJobExperience(attr, score/100*experiencePerDay)
	e.ledger.ConsumeEnergy(b.WorkEnergyCost)
	e.ledger.AddSkillPoints(points)
	e.ledger.AddMoney(pay, "job_salary")

	priorDays := e.state.WorkDaysCompleted
	e.state.PerformanceRating = rating
	e.state.WorkDaysCompleted++
	e.state.Experience++

	res := WorkDayResult{
		PerformanceScore:      score,
		PerformanceRating:     rating,
		DailyPay:              pay,
		SkillPointsEarned:     points,
		AttributePointsEarned: gained,
	}
	if rating < b.FireThreshold && priorDays >= b.FireGraceDays {
		e.closePosition(day, models.EndFired)
		res.Fired = true
	}
	return res, nil
}

// QuitJob leaves the active position voluntarily.
func (e *Engine) QuitJob(day int) (models.JobRecord, error) {
	if e.state.CurrentPosition == nil {
		return models.JobRecord{}, rules.ErrNoActivePosition
	}
	return e.closePosition(day, models.EndQuit), nil
}

func (e *Engine) closePosition(day int, reason models.EndReason) models.JobRecord {
	rec := models.JobRecord{
		Job:              *e.state.CurrentPosition,
		StartedDay:       e.state.StartedDay,
		EndedDay:         day,
		EndedAt:          e.ledger.Now(),
		DaysWorked:       e.state.WorkDaysCompleted,
		FinalPerformance: e.state.PerformanceRating,
		Reason:           reason,
	}
	e.state.JobHistory = append(e.state.JobHistory, rec)
	e.state.CurrentPosition = nil
	e.state.StartedDay = 0
	e.state.WorkDaysCompleted = 0
	e.state.PerformanceRating = models.BaselinePerformance
	e.ledger.SetCurrentJob("")
	return rec
}

// Current returns the active position, if any.
func (e *Engine) Current() (models.Job, bool) {
	if e.state.CurrentPosition == nil {
		return models.Job{}, false
	}
	return *e.state.CurrentPosition, true
}

// AvailableJobs filters the catalog by education only.
func (e *Engine) AvailableJobs() []models.Job {
	var out []models.Job
	for _, j := range e.cat.Jobs {
		if e.ledger.Education().AtLeast(j.Requirements.Education) {
			out = append(out, j)
		}
	}
	return out
}

// EligibleJobs filters the catalog by every requirement.
func (e *Engine) EligibleJobs() []models.Job {
	var out []models.Job
	for _, j := range e.cat.Jobs {
		if e.checkRequirements(j) == nil {
			out = append(out, j)
		}
	}
	return out
}

func (e *Engine) Statistics() models.CareerStatistics {
	stats := models.CareerStatistics{
		TotalExperience:    e.state.Experience,
		CurrentPerformance: int(math.Round(e.state.PerformanceRating)),
		TotalJobsHeld:      len(e.state.JobHistory),
		CurrentJobLevel:    "none",
		CurrentJobTrack:    "none",
	}
	if job := e.state.CurrentPosition; job != nil {
		stats.TotalJobsHeld++
		stats.CurrentJobLevel = job.Level
		stats.CurrentJobTrack = job.Track
	}
	return stats
}
