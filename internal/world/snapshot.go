package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"devlife/internal/models"
	"devlife/internal/storage"
)

// SchemaVersion of the snapshot envelope written by Commit. Version 1 is a
// bare namespace document without an envelope.
const SchemaVersion = 2

const keyPrefix = "devlife-"

// Namespaces persisted per save slot, in load order
var Namespaces = []string{"app", "character", "skills", "career", "business", "life"}

var errFutureVersion = errors.New("snapshot from a newer version")

// ErrInvalidSlot is returned for slot names that cannot form a storage key
var ErrInvalidSlot = errors.New("invalid save slot")

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// SaveKey returns the storage key for one namespace of a slot. The empty
// slot is the default save.
func SaveKey(namespace, slot string) string {
	if slot == "" {
		return keyPrefix + namespace
	}
	return keyPrefix + namespace + "-" + slot
}

// ValidSlot reports whether slot can be used in a storage key unchanged.
func ValidSlot(slot string) bool {
	return slot == "" || (len(slot) <= 64 && storage.CleanKey(slot) == slot)
}

// unwrap returns the namespace document and its schema version.
func unwrap(raw json.RawMessage) (json.RawMessage, int, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, 0, err
	}
	_, hasVersion := fields["version"]
	data, hasData := fields["data"]
	if !hasVersion || !hasData || len(fields) != 2 {
		return raw, 1, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, 0, err
	}
	if env.Version > SchemaVersion {
		return nil, env.Version, fmt.Errorf("%w: %d", errFutureVersion, env.Version)
	}
	return data, env.Version, nil
}

// decodeNamespace decodes one stored document over target, which already
// holds the namespace defaults. Fields missing from older documents keep
// their defaults.
func decodeNamespace(raw json.RawMessage, target any) (int, error) {
	data, version, err := unwrap(raw)
	if err != nil {
		return version, err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return version, err
	}
	return version, nil
}

// migrate upgrades a decoded game from an older schema.
func migrate(g *models.GameState, from int) {
	if from >= SchemaVersion {
		return
	}
	// v1 applications carried no decision time; they are due immediately.
	for i := range g.Career.Applications {
		app := &g.Career.Applications[i]
		if app.DecideAt.IsZero() {
			app.DecideAt = app.AppliedAt
		}
	}
}

// normalize replaces null collections left by hand-edited or old documents.
func normalize(g *models.GameState) {
	if g.App.Day < 1 {
		g.App.Day = 1
	}
	p := &g.Character.Progression
	if p.EducationBonuses == nil {
		p.EducationBonuses = []models.EducationBonus{}
	}
	if p.JobExperience == nil {
		p.JobExperience = map[models.Attribute]float64{}
	}
	if p.Achievements == nil {
		p.Achievements = []models.Achievement{}
	}
	if g.Skills.Learned == nil {
		g.Skills.Learned = []string{}
	}
	if g.Career.Applications == nil {
		g.Career.Applications = []models.Application{}
	}
	if g.Career.Interviews == nil {
		g.Career.Interviews = []models.Interview{}
	}
	if g.Career.JobHistory == nil {
		g.Career.JobHistory = []models.JobRecord{}
	}
	if g.Business.Ideas == nil {
		g.Business.Ideas = []models.Idea{}
	}
	if g.Business.Products == nil {
		g.Business.Products = []models.Product{}
	}
}

// checkNamespace rejects a decoded namespace whose values no action could
// have produced.
func checkNamespace(g *models.GameState, namespace string) error {
	switch namespace {
	case "character":
		return g.Character.CheckBounds()
	case "career":
		if r := g.Career.PerformanceRating; r < 0 || r > 100 {
			return fmt.Errorf("performance rating %v outside [0,100]", r)
		}
		if g.Career.WorkDaysCompleted < 0 {
			return fmt.Errorf("work days %d are negative", g.Career.WorkDaysCompleted)
		}
	}
	return nil
}

// namespaceTargets maps each namespace to its field in g.
func namespaceTargets(g *models.GameState) map[string]any {
	return map[string]any{
		"app":       &g.App,
		"character": &g.Character,
		"skills":    &g.Skills,
		"career":    &g.Career,
		"business":  &g.Business,
		"life":      &g.Life,
	}
}

// resetNamespace restores one namespace of g from defaults.
func resetNamespace(g, defaults *models.GameState, namespace string) {
	switch namespace {
	case "app":
		g.App = defaults.App
	case "character":
		g.Character = defaults.Character
	case "skills":
		g.Skills = defaults.Skills
	case "career":
		g.Career = defaults.Career
	case "business":
		g.Business = defaults.Business
	case "life":
		g.Life = defaults.Life
	}
}

// loadGame reads every namespace of slot. A missing namespace keeps its
// defaults; an unreadable or out-of-range one falls back to defaults with a
// warning. The
// returned list names the namespaces that fell back.
func loadGame(store *storage.Store, slot string, startingSkills []string) (*models.GameState, []string) {
	g := models.NewGameState(startingSkills)
	targets := namespaceTargets(g)
	oldest := SchemaVersion
	var fallbacks []string

	for _, ns := range Namespaces {
		key := SaveKey(ns, slot)
		raw, err := store.Get(key)
		if err == nil && raw == nil {
			continue
		}
		var version int
		if err == nil {
			version, err = decodeNamespace(raw, targets[ns])
		}
		if err == nil {
			err = checkNamespace(g, ns)
		}
		if err != nil {
			slog.Warn("snapshot unreadable, using defaults", "key", key, "error", err)
			resetNamespace(g, models.NewGameState(startingSkills), ns)
			fallbacks = append(fallbacks, ns)
			continue
		}
		oldest = min(oldest, version)
	}

	migrate(g, oldest)
	normalize(g)
	return g, fallbacks
}

// saveGame writes every namespace of g as a versioned envelope.
func saveGame(store *storage.Store, slot string, g *models.GameState) error {
	targets := namespaceTargets(g)
	for _, ns := range Namespaces {
		data, err := json.Marshal(targets[ns])
		if err != nil {
			return fmt.Errorf("marshal %s: %w", ns, err)
		}
		if err := store.SetJSON(SaveKey(ns, slot), envelope{Version: SchemaVersion, Data: data}); err != nil {
			return fmt.Errorf("save %s: %w", ns, err)
		}
	}
	return nil
}

// SlotInfo describes a save slot found in the store
type SlotInfo struct {
	Slot      string    `json:"slot"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListSlots returns the save slots in the store, newest first. A slot is
// identified by its app document.
func ListSlots(store *storage.Store) ([]SlotInfo, error) {
	saves, err := store.List()
	if err != nil {
		return nil, err
	}
	appKey := SaveKey("app", "")
	var out []SlotInfo
	for _, s := range saves {
		switch {
		case s.ID == appKey:
			out = append(out, SlotInfo{Slot: "", UpdatedAt: s.UpdatedAt})
		case strings.HasPrefix(s.ID, appKey+"-"):
			out = append(out, SlotInfo{Slot: strings.TrimPrefix(s.ID, appKey+"-"), UpdatedAt: s.UpdatedAt})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// DeleteSlot removes every namespace document of slot.
func DeleteSlot(store *storage.Store, slot string) error {
	for _, ns := range Namespaces {
		if err := store.Delete(SaveKey(ns, slot)); err != nil {
			return fmt.Errorf("delete %s: %w", ns, err)
		}
	}
	return nil
}
