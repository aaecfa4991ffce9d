package handlers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"devlife/internal/career"
	"devlife/internal/catalog"
	"devlife/internal/models"
	"devlife/internal/rules"
	"devlife/internal/storage"
	"devlife/internal/world"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates
var templateFS embed.FS

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

const sessionCookieName = "devlife_session"

// Config wires the app to its shared dependencies
type Config struct {
	Catalog *catalog.Catalog
	Store   *storage.Store
	Hub     *Hub

	// Seed makes session randomness reproducible; zero seeds from the clock.
	Seed uint64

	// IdleTimeout evicts sessions not used for this long. Zero means one hour.
	IdleTimeout time.Duration

	Now func() time.Time
}

// App holds the application state and dependencies
type App struct {
	PageTemplates map[string]*template.Template
	FuncMap       template.FuncMap
	cfg           Config
	sessionCount  atomic.Uint64
	players       sync.Map // map[string]*player, keyed by cookie

	// slots holds one live session per save. Every cookie playing a save
	// shares it, so the session lock orders all writes to that save.
	slotsMu sync.Mutex
	slots   map[string]*world.Session

	// blank answers cookies that have not started or loaded a game.
	blank *world.Session
}

// player is one browser cookie: its request lock and the save it plays.
type player struct {
	mu       sync.Mutex
	slot     atomic.Pointer[string]
	lastSeen atomic.Int64
}

// NewApp creates a new app with templates compiled at startup
func NewApp(cfg Config) (*App, error) {
	if cfg.Catalog == nil || cfg.Store == nil {
		return nil, fmt.Errorf("catalog and store are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = time.Hour
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)

	funcMap := template.FuncMap{
		"renderMarkdown": func(s string) template.HTML {
			var buf bytes.Buffer
			if err := md.Convert([]byte(s), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(s))
			}
			return template.HTML(unsafeHrefRe.ReplaceAllString(buf.String(), `$1="#"`))
		},
	}

	pages := map[string]*template.Template{}
	for _, page := range []string{"status.html"} {
		tmpl, err := compilePageTemplate(templateFS, funcMap, page)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", page, err)
		}
		pages[page] = tmpl
	}

	a := &App{
		PageTemplates: pages,
		FuncMap:       funcMap,
		cfg:           cfg,
		slots:         map[string]*world.Session{},
	}
	a.blank = a.newSession("")
	return a, nil
}

// newSession builds a session for slot with its own random stream.
func (a *App) newSession(slot string) *world.Session {
	n := a.sessionCount.Add(1)
	seed := a.cfg.Seed
	if seed == 0 {
		seed = uint64(a.cfg.Now().UnixNano())
	}
	return world.NewSession(world.Options{
		Catalog: a.cfg.Catalog,
		Store:   a.cfg.Store,
		Rand:    rules.NewRand(seed + n),
		Now:     a.cfg.Now,
		OnDecisions: func(decisions []career.Decision) {
			a.notifySlot(slot, "interview_decisions", decisions)
		},
	})
}

// slotSession returns the live session for slot, loading it from the store
// on first use. Fallbacks are only reported by the load that read the files.
func (a *App) slotSession(slot string) (*world.Session, []string, error) {
	if !world.ValidSlot(slot) {
		return nil, nil, fmt.Errorf("%w: %q", world.ErrInvalidSlot, slot)
	}
	a.slotsMu.Lock()
	defer a.slotsMu.Unlock()
	if session, ok := a.slots[slot]; ok {
		session.Touch()
		return session, []string{}, nil
	}
	session := a.newSession(slot)
	fallbacks, err := session.Load(slot)
	if err != nil {
		return nil, nil, err
	}
	a.slots[slot] = session
	return session, fallbacks, nil
}

// dropSlot deletes a save and retires its live session so a request still
// holding it cannot write the save back.
func (a *App) dropSlot(slot string) error {
	a.slotsMu.Lock()
	defer a.slotsMu.Unlock()
	if session, ok := a.slots[slot]; ok {
		if err := session.Discard(); err != nil {
			return err
		}
		delete(a.slots, slot)
	} else if err := world.DeleteSlot(a.cfg.Store, slot); err != nil {
		return err
	}
	a.players.Range(func(_, value any) bool {
		p := value.(*player)
		if cur := p.slot.Load(); cur != nil && *cur == slot {
			p.slot.CompareAndSwap(cur, nil)
		}
		return true
	})
	return nil
}

func (a *App) getPlayer(sid string) *player {
	if v, ok := a.players.Load(sid); ok {
		return v.(*player)
	}
	p := &player{}
	p.lastSeen.Store(a.cfg.Now().UnixNano())
	v, _ := a.players.LoadOrStore(sid, p)
	return v.(*player)
}

// attach points the request's cookie at slot.
func (a *App) attach(r *http.Request, slot string) {
	a.getPlayer(sessionID(r)).slot.Store(&slot)
}

// attachedSlot reports the save the request's cookie plays.
func (a *App) attachedSlot(r *http.Request) (string, bool) {
	if slot := a.getPlayer(sessionID(r)).slot.Load(); slot != nil {
		return *slot, true
	}
	return "", false
}

// getSession retrieves the session of the save this request plays.
// Must be called from a handler wrapped with WithSessionLock.
func (a *App) getSession(r *http.Request) *world.Session {
	slot, ok := a.attachedSlot(r)
	if !ok {
		return a.blank
	}
	session, _, err := a.slotSession(slot)
	if err != nil {
		slog.Error("reopen save", "slot", slot, "error", err)
		return a.blank
	}
	return session
}

// notifySlot pushes a notification to every cookie playing slot.
func (a *App) notifySlot(slot, kind string, payload any) {
	a.players.Range(func(key, value any) bool {
		if cur := value.(*player).slot.Load(); cur != nil && *cur == slot {
			a.cfg.Hub.Notify(key.(string), kind, payload)
		}
		return true
	})
}

func getSessionCookie(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	return ""
}

type contextKey string

const sessionIDKey contextKey = "sessionID"

func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(sessionIDKey).(string)
	return sid
}

// WithSessionLock returns middleware that serializes requests from one cookie
// for the duration of the request, creating a session ID and cookie if none exists.
func (a *App) WithSessionLock(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := getSessionCookie(r)
		if sid == "" {
			sid = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   30 * 24 * 60 * 60,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		p := a.getPlayer(sid)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.lastSeen.Store(a.cfg.Now().UnixNano())
		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next(w, r.WithContext(ctx))
	}
}

// compilePageTemplate parses layout + a specific page template into one set
func compilePageTemplate(templateFS fs.FS, funcMap template.FuncMap, page string) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
}

// Index serves the status page
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	session := a.getSession(r)
	g := session.State()
	data := map[string]any{
		"Title":   "Dev Life",
		"Created": g.App.CharacterCreated,
		"Report":  statusReport(a.cfg.Catalog, session, g),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.PageTemplates["status.html"].ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.Error("render failed", "template", "status", "error", err)
	}
}

// statusReport renders the save as Markdown.
func statusReport(cat *catalog.Catalog, session *world.Session, g models.GameState) string {
	var b strings.Builder
	if !g.App.CharacterCreated {
		b.WriteString("# No character yet\n\nCreate one with `POST /api/game/new`.\n")
		return b.String()
	}
	c := g.Character
	fmt.Fprintf(&b, "# %s, day %d\n\n", c.Name, g.App.Day)
	b.WriteString("| Money | Energy | Reputation | Skill points | Attribute points | Education |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %s |\n\n",
		c.Money, c.Energy, c.Reputation, c.SkillPoints, c.AvailableAttributePoints, c.Education)

	b.WriteString("## Attributes\n\n")
	for _, attr := range models.AllAttributes {
		fmt.Fprintf(&b, "- **%s** %d\n", attr, c.Attributes.Get(attr))
	}

	b.WriteString("\n## Skills\n\n")
	counts := session.SkillCounts()
	for _, category := range cat.Categories {
		fmt.Fprintf(&b, "- %s: %d\n", category.Name, counts[category.Key])
	}
	if len(g.Skills.Learned) > 0 {
		fmt.Fprintf(&b, "\nLearned: %s\n", strings.Join(g.Skills.Learned, ", "))
	}

	b.WriteString("\n## Career\n\n")
	if job := g.Career.CurrentPosition; job != nil {
		fmt.Fprintf(&b, "%s at %s, %d days worked, performance %.1f\n", job.Title, job.Company, g.Career.WorkDaysCompleted, g.Career.PerformanceRating)
	} else {
		b.WriteString("Unemployed\n")
	}
	for _, app := range g.Career.Applications {
		fmt.Fprintf(&b, "- %s: %s\n", app.JobID, strings.ReplaceAll(string(app.Status), "_", " "))
	}

	b.WriteString("\n## Business\n\n")
	stats := session.BusinessStatistics()
	fmt.Fprintf(&b, "%d ideas, %d products (%d successful), %d earned, %d monthly\n",
		len(g.Business.Ideas), stats.TotalProducts, stats.SuccessfulProducts, stats.TotalEarnings, stats.MonthlyIncome)
	if p := g.Business.CurrentDevelopment; p != nil {
		fmt.Fprintf(&b, "\nIn progress: **%s** (%s, development %d%%, debugging %d%%, %d bugs)\n",
			p.Name, p.Stage, p.DevelopmentProgress, p.DebuggingProgress, p.BugCount)
	}

	fmt.Fprintf(&b, "\n## Life\n\nLiving in %s, %d per day\n", strings.ReplaceAll(g.Life.Housing.Type, "_", " "), g.Life.Housing.DailyCost)
	if len(c.Progression.Achievements) > 0 {
		b.WriteString("\n## Achievements\n\n")
		for _, ach := range c.Progression.Achievements {
			fmt.Fprintf(&b, "- %s\n", ach.Description)
		}
	}
	return b.String()
}

// StartEviction starts a background goroutine that evicts idle sessions
func (a *App) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.evictSessions()
			}
		}
	}()
}

func (a *App) evictSessions() {
	now := a.cfg.Now()
	a.players.Range(func(key, value any) bool {
		p := value.(*player)
		if now.Sub(time.Unix(0, p.lastSeen.Load())) <= a.cfg.IdleTimeout {
			return true
		}
		if !p.mu.TryLock() {
			return true // in use, skip
		}
		a.players.Delete(key)
		p.mu.Unlock()
		return true
	})

	a.slotsMu.Lock()
	defer a.slotsMu.Unlock()
	for slot, session := range a.slots {
		if now.Sub(session.LastAccessed()) <= a.cfg.IdleTimeout {
			continue
		}
		if session.State().App.CharacterCreated {
			if err := session.Commit(); err != nil {
				slog.Error("failed to persist save before eviction", "slot", slot, "error", err)
				continue
			}
		}
		delete(a.slots, slot)
		slog.Info("evicted idle save", "slot", slot)
	}
}

// CommitAll writes every live save. It is called on shutdown.
func (a *App) CommitAll() {
	a.slotsMu.Lock()
	defer a.slotsMu.Unlock()
	for slot, session := range a.slots {
		if !session.State().App.CharacterCreated {
			continue
		}
		if err := session.Commit(); err != nil {
			slog.Error("failed to persist save", "slot", slot, "error", err)
		}
	}
}
