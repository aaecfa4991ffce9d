// Package life covers the upkeep side of the game: food and rest, housing,
// self-improvement activities and education exams.
package life

import (
	"fmt"

	"devlife/internal/catalog"
	"devlife/internal/ledger"
	"devlife/internal/models"
	"devlife/internal/rules"
)

// Engine binds life rules to one save
type Engine struct {
	cat    *catalog.Catalog
	state  *models.LifeState
	ledger *ledger.Ledger
}

// New returns an engine for one save.
func New(cat *catalog.Catalog, state *models.LifeState, l *ledger.Ledger) *Engine {
	return &Engine{cat: cat, state: state, ledger: l}
}

// EnergyResult reports a restore action
type EnergyResult struct {
	EnergyGain int `json:"energyGain"`
	Energy     int `json:"energy"`
	Spent      int `json:"spent"`
}

func (e *Engine) buyEnergy(cost, gain int, purpose string) (EnergyResult, error) {
	if cost > 0 && !e.ledger.SpendMoney(cost, purpose) {
		return EnergyResult{}, fmt.Errorf("%w: %s costs %d, have %d", rules.ErrInsufficientFunds, purpose, cost, e.ledger.Money())
	}
	e.ledger.RestoreEnergy(gain)
	return EnergyResult{EnergyGain: gain, Energy: e.ledger.Energy(), Spent: cost}, nil
}

// EatFood buys a meal.
func (e *Engine) EatFood() (EnergyResult, error) {
	b := e.cat.Balance
	return e.buyEnergy(b.EatCost, b.EatEnergy, "food")
}

// PlayGames buys some entertainment.
func (e *Engine) PlayGames() (EnergyResult, error) {
	b := e.cat.Balance
	return e.buyEnergy(b.PlayCost, b.PlayEnergy, "entertainment")
}

// Sleep is free and better in a nicer home.
func (e *Engine) Sleep() EnergyResult {
	gain := e.cat.Balance.SleepEnergy + e.state.Housing.EnergyBonus
	e.ledger.RestoreEnergy(gain)
	return EnergyResult{EnergyGain: gain, Energy: e.ledger.Energy()}
}

// Housing returns the current home.
func (e *Engine) Housing() models.Housing { return e.state.Housing }

// UpgradeHousing buys a home and moves in.
func (e *Engine) UpgradeHousing(kind string) (models.Housing, error) {
	opt, ok := e.cat.HousingOption(kind)
	if !ok {
		return models.Housing{}, rules.NotFound("housing", kind)
	}
	if e.state.Housing.Type == opt.Type {
		return models.Housing{}, fmt.Errorf("%w: already living in %s", rules.ErrAlreadyOwned, opt.Name)
	}
	if opt.Price > 0 && !e.ledger.SpendMoney(opt.Price, "housing_"+opt.Type) {
		return models.Housing{}, fmt.Errorf("%w: %s costs %d, have %d", rules.ErrInsufficientFunds, opt.Name, opt.Price, e.ledger.Money())
	}
	e.state.Housing = models.Housing{
		Type:            opt.Type,
		DailyCost:       opt.DailyCost(),
		EnergyBonus:     opt.EnergyBonus,
		ReputationBonus: opt.ReputationBonus,
	}
	e.ledger.AddReputation(opt.ReputationBonus)
	return e.state.Housing, nil
}

// PayDailyCosts charges the housing cost for one day. It reports false when
// the money was not there; nothing is charged in that case.
func (e *Engine) PayDailyCosts() bool {
	cost := e.state.Housing.DailyCost
	if cost <= 0 {
		return true
	}
	return e.ledger.SpendMoney(cost, "housing_daily")
}

// ActivityResult reports a completed activity
type ActivityResult struct {
	Activity        string `json:"activity"`
	MoneySpent      int    `json:"moneySpent"`
	EnergySpent     int    `json:"energySpent"`
	AttributePoints int    `json:"attributePoints"`
}

// DoActivity performs a self-improvement activity. Energy is checked before
// money is spent.
func (e *Engine) DoActivity(key string) (ActivityResult, error) {
	act, ok := e.cat.Activity(key)
	if !ok {
		return ActivityResult{}, rules.NotFound("activity", key)
	}
	if have := e.ledger.Energy(); have < act.Energy {
		return ActivityResult{}, fmt.Errorf("%w: %s needs %d, have %d", rules.ErrInsufficientEnergy, act.Name, act.Energy, have)
	}
	if act.Money > 0 && !e.ledger.SpendMoney(act.Money, act.Key) {
		return ActivityResult{}, fmt.Errorf("%w: %s costs %d, have %d", rules.ErrInsufficientFunds, act.Name, act.Money, e.ledger.Money())
	}
	e.ledger.ConsumeEnergy(act.Energy)
	e.ledger.AddAttributePoints(act.AttributePoints, "activity_"+act.Key)
	return ActivityResult{
		Activity:        act.Key,
		MoneySpent:      act.Money,
		EnergySpent:     act.Energy,
		AttributePoints: act.AttributePoints,
	}, nil
}
