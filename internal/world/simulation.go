package world

import (
	"log/slog"

	"devlife/internal/models"
)

// AdvanceDay ends the current day: the day counter moves on, due interviews
// are decided, housing is paid, launched products earn, and energy decays.
// An unpaid housing cost is reported in the summary, not returned as an
// error.
func (s *Session) AdvanceDay() (models.DaySummary, error) {
	var summary models.DaySummary
	err := s.mutate(func(b *bound) error {
		s.game.App.Day++
		summary = models.DaySummary{
			Day:               s.game.App.Day,
			InterviewsGranted: []string{},
			Rejections:        []string{},
		}
		for _, d := range b.decisions {
			if d.Status == models.ApplicationInterviewScheduled {
				summary.InterviewsGranted = append(summary.InterviewsGranted, d.JobID)
			} else {
				summary.Rejections = append(summary.Rejections, d.JobID)
			}
		}

		summary.HousingCost = b.life.Housing().DailyCost
		summary.HousingPaid = b.life.PayDailyCosts()
		if !summary.HousingPaid {
			slog.Info("housing cost unpaid", "day", summary.Day, "cost", summary.HousingCost, "money", b.ledger.Money())
		}

		summary.PassiveIncome = b.business.AccrueDailyIncome()

		before := b.ledger.Energy()
		b.ledger.ConsumeEnergy(s.cat.Balance.DailyEnergyDecay)
		summary.EnergyDecay = before - b.ledger.Energy()
		return nil
	})
	return summary, err
}
