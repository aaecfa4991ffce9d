package models

// AppState tracks game setup and the simulated calendar
type AppState struct {
	Day              int  `json:"day"`
	CharacterCreated bool `json:"characterCreated"`
}

// GameState is the entire state of one save
type GameState struct {
	App       AppState      `json:"app"`
	Character Character     `json:"character"`
	Skills    SkillState    `json:"skills"`
	Career    CareerState   `json:"career"`
	Business  BusinessState `json:"business"`
	Life      LifeState     `json:"life"`
}

// NewGameState returns default state with the given skills already learned.
func NewGameState(startingSkills []string) *GameState {
	learned := make([]string, len(startingSkills))
	copy(learned, startingSkills)
	return &GameState{
		App:       AppState{Day: 1},
		Character: DefaultCharacter(),
		Skills:    SkillState{Learned: learned},
		Career:    DefaultCareer(),
		Business:  DefaultBusiness(),
		Life:      DefaultLife(),
	}
}

// DaySummary reports what happened when a day was advanced
type DaySummary struct {
	Day               int      `json:"day"`
	HousingCost       int      `json:"housingCost"`
	HousingPaid       bool     `json:"housingPaid"`
	PassiveIncome     int      `json:"passiveIncome"`
	EnergyDecay       int      `json:"energyDecay"`
	InterviewsGranted []string `json:"interviewsGranted"`
	Rejections        []string `json:"rejections"`
}
