package models

// Housing the character currently lives in
type Housing struct {
	Type            string `json:"type"`
	DailyCost       int    `json:"dailyCost"`
	EnergyBonus     int    `json:"energyBonus"`
	ReputationBonus int    `json:"reputationBonus"`
}

// Lifestyle ratings, display only
type Lifestyle struct {
	Health    int `json:"health"`
	Happiness int `json:"happiness"`
	Stress    int `json:"stress"`
}

// LifeState is the per-save life namespace
type LifeState struct {
	Housing            Housing   `json:"housing"`
	RelationshipStatus string    `json:"relationshipStatus"`
	Lifestyle          Lifestyle `json:"lifestyle"`
}

// DefaultLife returns the starting basic apartment.
func DefaultLife() LifeState {
	return LifeState{
		Housing: Housing{
			Type:      "basic_apartment",
			DailyCost: 50,
		},
		RelationshipStatus: "single",
		Lifestyle: Lifestyle{
			Health:    75,
			Happiness: 60,
			Stress:    30,
		},
	}
}
