package handlers

import (
	"net/http"

	"devlife/internal/world"

	"github.com/google/uuid"
)

func shortSlotID() string {
	return uuid.NewString()[:8]
}

type slotRequest struct {
	Slot string `json:"slot"`
}

type saveDisplay struct {
	world.SlotInfo
	Active bool `json:"active"`
}

// ListSaves handles GET /api/saves
func (a *App) ListSaves(w http.ResponseWriter, r *http.Request) {
	slots, err := world.ListSlots(a.cfg.Store)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active, attached := a.attachedSlot(r)
	out := make([]saveDisplay, 0, len(slots))
	for _, s := range slots {
		out = append(out, saveDisplay{SlotInfo: s, Active: attached && s.Slot == active})
	}
	writeJSON(w, http.StatusOK, out)
}

// LoadSave handles POST /api/saves/load. Cookies loading the same slot play
// the same live session.
func (a *App) LoadSave(w http.ResponseWriter, r *http.Request) {
	var body slotRequest
	if !decodeBody(w, r, &body) {
		return
	}
	session, fallbacks, err := a.slotSession(body.Slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.attach(r, body.Slot)
	writeJSON(w, http.StatusOK, map[string]any{
		"slot":      body.Slot,
		"fallbacks": fallbacks,
		"state":     session.State(),
	})
}

// DeleteSave handles DELETE /api/saves?slot=
func (a *App) DeleteSave(w http.ResponseWriter, r *http.Request) {
	slot := r.URL.Query().Get("slot")
	if !world.ValidSlot(slot) {
		badRequest(w, "invalid save slot")
		return
	}
	if err := a.dropSlot(slot); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
