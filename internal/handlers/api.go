package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"devlife/internal/career"
	"devlife/internal/models"
	"devlife/internal/rules"
	"devlife/internal/world"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: message})
}

// writeError maps an action error to a status code. Rule rejections are
// conflicts, unknown ids are 404, everything else is a server fault.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := rules.Code(err)
	switch {
	case errors.Is(err, rules.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: code, Message: err.Error()})
	case errors.Is(err, rules.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: code, Message: err.Error()})
	case code != "":
		writeJSON(w, http.StatusConflict, errorBody{Error: code, Message: err.Error()})
	case errors.Is(err, world.ErrInvalidSlot):
		badRequest(w, err.Error())
	default:
		slog.Error("action failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "action failed"})
	}
}

// decodeBody reads a JSON request body into v. An empty body leaves v
// unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// action adapts a session operation into a JSON endpoint. A successful
// result is returned and pushed as kind to the websockets of every cookie
// playing the same save.
func (a *App) action(kind string, run func(w http.ResponseWriter, r *http.Request, s *world.Session) (any, bool, error)) http.HandlerFunc {
	return a.WithSessionLock(func(w http.ResponseWriter, r *http.Request) {
		session := a.getSession(r)
		result, ok, err := run(w, r, session)
		if !ok {
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		a.notifySlot(session.Slot(), kind, result)
		writeJSON(w, http.StatusOK, result)
	})
}

// simple wraps an operation that takes no request body.
func simple[T any](op func(s *world.Session) (T, error)) func(http.ResponseWriter, *http.Request, *world.Session) (any, bool, error) {
	return func(_ http.ResponseWriter, _ *http.Request, s *world.Session) (any, bool, error) {
		res, err := op(s)
		return res, true, err
	}
}

// withBody wraps an operation that takes a decoded JSON body.
func withBody[B, T any](op func(s *world.Session, body B) (T, error)) func(http.ResponseWriter, *http.Request, *world.Session) (any, bool, error) {
	return func(w http.ResponseWriter, r *http.Request, s *world.Session) (any, bool, error) {
		var body B
		if !decodeBody(w, r, &body) {
			return nil, false, nil
		}
		res, err := op(s, body)
		return res, true, err
	}
}

type newGameRequest struct {
	Name       string            `json:"name"`
	Age        int               `json:"age"`
	Attributes models.Attributes `json:"attributes"`
}

// NewGame creates a character on a fresh save slot.
func (a *App) NewGame() http.HandlerFunc {
	return a.WithSessionLock(func(w http.ResponseWriter, r *http.Request) {
		var body newGameRequest
		if !decodeBody(w, r, &body) {
			return
		}
		config := models.CharacterConfig{Name: body.Name, Age: body.Age, Attributes: body.Attributes}
		if err := config.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_character", Message: err.Error()})
			return
		}

		slot := "game-" + shortSlotID()
		session, _, err := a.slotSession(slot)
		if err != nil {
			writeError(w, r, err)
			return
		}
		c, err := session.NewGame(config)
		if err != nil {
			writeError(w, r, err)
			return
		}
		a.attach(r, slot)
		a.notifySlot(slot, "new_game", c)
		writeJSON(w, http.StatusCreated, map[string]any{"slot": slot, "character": c})
	})
}

// Reset wipes the save this cookie plays back to defaults.
func (a *App) Reset() http.HandlerFunc {
	return a.WithSessionLock(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.attachedSlot(r); !ok {
			writeError(w, r, rules.ErrNoCharacter)
			return
		}
		if err := a.getSession(r).Reset(); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
}

type skillRequest struct {
	Skill string `json:"skill"`
}

type attributeRequest struct {
	Attribute models.Attribute `json:"attribute"`
	Points    int              `json:"points"`
}

type jobRequest struct {
	JobID string `json:"jobId"`
}

type ideaRequest struct {
	IdeaID string `json:"ideaId"`
}

type developRequest struct {
	PerformanceScore *float64 `json:"performanceScore"`
}

type debugRequest struct {
	Bugs int `json:"bugs"`
}

type housingRequest struct {
	Type string `json:"type"`
}

type activityRequest struct {
	Activity string `json:"activity"`
}

type examRequest struct {
	Level models.Education `json:"level"`
}

// LearnSkill handles POST /api/skills/learn
func (a *App) LearnSkill() http.HandlerFunc {
	return a.action("skill_learned", withBody(func(s *world.Session, b skillRequest) (any, error) {
		return s.LearnSkill(b.Skill)
	}))
}

// ImproveAttribute handles POST /api/attributes/improve
func (a *App) ImproveAttribute() http.HandlerFunc {
	return a.action("attribute_improved", withBody(func(s *world.Session, b attributeRequest) (any, error) {
		if b.Points == 0 {
			b.Points = 1
		}
		return s.ImproveAttribute(b.Attribute, b.Points)
	}))
}

// ApplyForJob handles POST /api/jobs/apply
func (a *App) ApplyForJob() http.HandlerFunc {
	return a.action("job_applied", withBody(func(s *world.Session, b jobRequest) (any, error) {
		return s.ApplyForJob(b.JobID)
	}))
}

// AcceptJob handles POST /api/jobs/accept
func (a *App) AcceptJob() http.HandlerFunc {
	return a.action("job_accepted", withBody(func(s *world.Session, b jobRequest) (any, error) {
		return s.AcceptJob(b.JobID)
	}))
}

// Work handles POST /api/jobs/work
func (a *App) Work() http.HandlerFunc {
	return a.action("work_day", simple((*world.Session).Work))
}

// QuitJob handles POST /api/jobs/quit
func (a *App) QuitJob() http.HandlerFunc {
	return a.action("job_quit", simple((*world.Session).QuitJob))
}

// ResolveInterviews handles POST /api/interviews/resolve
func (a *App) ResolveInterviews() http.HandlerFunc {
	return a.action("interviews_resolved", simple((*world.Session).ResolveInterviews))
}

// GenerateIdea handles POST /api/business/ideas
func (a *App) GenerateIdea() http.HandlerFunc {
	return a.action("idea_generated", simple((*world.Session).GenerateIdea))
}

// StartDevelopment handles POST /api/business/start
func (a *App) StartDevelopment() http.HandlerFunc {
	return a.action("development_started", withBody(func(s *world.Session, b ideaRequest) (any, error) {
		return s.StartDevelopment(b.IdeaID)
	}))
}

// Develop handles POST /api/business/develop. Without a score the work
// performance of the character's current attributes is used.
func (a *App) Develop() http.HandlerFunc {
	return a.action("development_progress", withBody(func(s *world.Session, b developRequest) (any, error) {
		var score float64
		if b.PerformanceScore != nil {
			score = *b.PerformanceScore
		} else {
			c := s.State().Character
			score = career.PerformanceScore(c.Attributes.Technical, c.Energy, c.Attributes.Social)
		}
		return s.Develop(score)
	}))
}

// Debug handles POST /api/business/debug
func (a *App) Debug() http.HandlerFunc {
	return a.action("debug_progress", withBody(func(s *world.Session, b debugRequest) (any, error) {
		return s.Debug(b.Bugs)
	}))
}

// Launch handles POST /api/business/launch
func (a *App) Launch() http.HandlerFunc {
	return a.action("product_launched", simple((*world.Session).Launch))
}

// Eat handles POST /api/life/eat
func (a *App) Eat() http.HandlerFunc {
	return a.action("ate", simple((*world.Session).Eat))
}

// Play handles POST /api/life/play
func (a *App) Play() http.HandlerFunc {
	return a.action("played", simple((*world.Session).Play))
}

// Sleep handles POST /api/life/sleep
func (a *App) Sleep() http.HandlerFunc {
	return a.action("slept", simple((*world.Session).Sleep))
}

// UpgradeHousing handles POST /api/life/housing
func (a *App) UpgradeHousing() http.HandlerFunc {
	return a.action("housing_upgraded", withBody(func(s *world.Session, b housingRequest) (any, error) {
		return s.UpgradeHousing(b.Type)
	}))
}

// Activity handles POST /api/life/activity
func (a *App) Activity() http.HandlerFunc {
	return a.action("activity_done", withBody(func(s *world.Session, b activityRequest) (any, error) {
		return s.Activity(b.Activity)
	}))
}

// TakeExam handles POST /api/education/exam
func (a *App) TakeExam() http.HandlerFunc {
	return a.action("exam_passed", withBody(func(s *world.Session, b examRequest) (any, error) {
		return s.TakeExam(b.Level)
	}))
}

// AdvanceDay handles POST /api/day/advance
func (a *App) AdvanceDay() http.HandlerFunc {
	return a.action("day_advanced", simple((*world.Session).AdvanceDay))
}

// State handles GET /api/state
func (a *App) State(w http.ResponseWriter, r *http.Request) {
	session := a.getSession(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"slot":     session.Slot(),
		"state":    session.State(),
		"career":   session.CareerStatistics(),
		"business": session.BusinessStatistics(),
		"skills":   session.SkillCounts(),
	})
}

// Skills handles GET /api/skills
func (a *App) Skills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.getSession(r).Skills())
}

// Jobs handles GET /api/jobs?view=available|eligible
func (a *App) Jobs(w http.ResponseWriter, r *http.Request) {
	var eligible bool
	switch view := r.URL.Query().Get("view"); view {
	case "", "available":
	case "eligible":
		eligible = true
	default:
		badRequest(w, "view must be available or eligible")
		return
	}
	jobs := a.getSession(r).Jobs(eligible)
	if jobs == nil {
		jobs = []models.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Business handles GET /api/business
func (a *App) Business(w http.ResponseWriter, r *http.Request) {
	session := a.getSession(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"state":      session.State().Business,
		"statistics": session.BusinessStatistics(),
	})
}

// Ws handles GET /ws
func (a *App) Ws(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Hub == nil {
		http.Error(w, "notifications disabled", http.StatusServiceUnavailable)
		return
	}
	a.cfg.Hub.ServeWs(sessionID(r), w, r)
}
