package models

import "time"

// IdeaType classifies a product idea by ambition
type IdeaType string

const (
	IdeaPortfolio  IdeaType = "portfolio"
	IdeaCommercial IdeaType = "commercial"
	IdeaStartup    IdeaType = "startup"
	IdeaDisruptive IdeaType = "disruptive"
)

// Idea in the backlog, not yet in development
type Idea struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           IdeaType  `json:"type"`
	Quality        int       `json:"quality"`
	RequiredSkills []string  `json:"requiredSkills"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Stage of the product lifecycle
type Stage string

const (
	StageDevelopment Stage = "development"
	StageDebugging   Stage = "debugging"
	StageReady       Stage = "ready"
	StageLaunched    Stage = "launched"
)

// Product is one pass through the lifecycle
type Product struct {
	ID                  string     `json:"id"`
	IdeaID              string     `json:"ideaId"`
	Name                string     `json:"name"`
	Type                IdeaType   `json:"type"`
	Quality             int        `json:"quality"`
	Stage               Stage      `json:"stage"`
	DevelopmentProgress int        `json:"developmentProgress"`
	DebuggingProgress   int        `json:"debuggingProgress"`
	BugCount            int        `json:"bugCount"`
	CreatedAt           time.Time  `json:"createdAt"`
	LaunchedAt          *time.Time `json:"launchedAt"`
	IsSuccessful        bool       `json:"isSuccessful"`
	MonthlyRevenue      int        `json:"monthlyRevenue"`
	TotalRevenue        int        `json:"totalRevenue"`
}

// BusinessState is the per-save business namespace
type BusinessState struct {
	Ideas              []Idea    `json:"ideas"`
	CurrentDevelopment *Product  `json:"currentDevelopment"`
	Products           []Product `json:"products"`
	TotalEarnings      int       `json:"totalEarnings"`
}

// DefaultBusiness returns an empty business.
func DefaultBusiness() BusinessState {
	return BusinessState{
		Ideas:    []Idea{},
		Products: []Product{},
	}
}

// BusinessStatistics summarizes launched products
type BusinessStatistics struct {
	TotalProducts      int `json:"totalProducts"`
	SuccessfulProducts int `json:"successfulProducts"`
	TotalEarnings      int `json:"totalEarnings"`
	MonthlyIncome      int `json:"monthlyIncome"`
	BusinessValue      int `json:"businessValue"`
}
