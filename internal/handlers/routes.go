package handlers

import "net/http"

// Routes registers every page and API endpoint on a new mux.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", a.WithSessionLock(a.Index))
	mux.HandleFunc("GET /ws", a.WithSessionLock(a.Ws))

	// Projections
	mux.HandleFunc("GET /api/state", a.WithSessionLock(a.State))
	mux.HandleFunc("GET /api/skills", a.WithSessionLock(a.Skills))
	mux.HandleFunc("GET /api/jobs", a.WithSessionLock(a.Jobs))
	mux.HandleFunc("GET /api/business", a.WithSessionLock(a.Business))

	// Game lifecycle
	mux.HandleFunc("POST /api/game/new", a.NewGame())
	mux.HandleFunc("POST /api/game/reset", a.Reset())
	mux.HandleFunc("POST /api/day/advance", a.AdvanceDay())

	// Character
	mux.HandleFunc("POST /api/skills/learn", a.LearnSkill())
	mux.HandleFunc("POST /api/attributes/improve", a.ImproveAttribute())
	mux.HandleFunc("POST /api/education/exam", a.TakeExam())

	// Career
	mux.HandleFunc("POST /api/jobs/apply", a.ApplyForJob())
	mux.HandleFunc("POST /api/jobs/accept", a.AcceptJob())
	mux.HandleFunc("POST /api/jobs/work", a.Work())
	mux.HandleFunc("POST /api/jobs/quit", a.QuitJob())
	mux.HandleFunc("POST /api/interviews/resolve", a.ResolveInterviews())

	// Business
	mux.HandleFunc("POST /api/business/ideas", a.GenerateIdea())
	mux.HandleFunc("POST /api/business/start", a.StartDevelopment())
	mux.HandleFunc("POST /api/business/develop", a.Develop())
	mux.HandleFunc("POST /api/business/debug", a.Debug())
	mux.HandleFunc("POST /api/business/launch", a.Launch())

	// Life
	mux.HandleFunc("POST /api/life/eat", a.Eat())
	mux.HandleFunc("POST /api/life/play", a.Play())
	mux.HandleFunc("POST /api/life/sleep", a.Sleep())
	mux.HandleFunc("POST /api/life/housing", a.UpgradeHousing())
	mux.HandleFunc("POST /api/life/activity", a.Activity())

	// Saves
	mux.HandleFunc("GET /api/saves", a.WithSessionLock(a.ListSaves))
	mux.HandleFunc("POST /api/saves/load", a.WithSessionLock(a.LoadSave))
	mux.HandleFunc("DELETE /api/saves", a.WithSessionLock(a.DeleteSave))

	return mux
}
