package models

import "time"

// Requirements gate an application
type Requirements struct {
	Education  Education `yaml:"education" json:"education"`
	Skills     []string  `yaml:"skills" json:"skills"`
	Reputation int       `yaml:"reputation" json:"reputation"`
}

// Job is an immutable catalog entry
type Job struct {
	ID           string       `yaml:"id" json:"id"`
	Title        string       `yaml:"title" json:"title"`
	Company      string       `yaml:"company" json:"company"`
	Level        string       `yaml:"level" json:"level"`
	Track        string       `yaml:"track" json:"track"`
	Salary       int          `yaml:"salary" json:"salary"` // per day
	Description  string       `yaml:"description" json:"description"`
	Requirements Requirements `yaml:"requirements" json:"requirements"`
}

// ApplicationStatus of a job application
type ApplicationStatus string

const (
	ApplicationApplied            ApplicationStatus = "applied"
	ApplicationInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationRejected           ApplicationStatus = "rejected"
	ApplicationAccepted           ApplicationStatus = "accepted"
)

// Application is a submitted job application. While Status is applied the
// interview decision is still pending and runs once DecideAt has passed.
type Application struct {
	JobID     string            `json:"jobId"`
	AppliedAt time.Time         `json:"appliedAt"`
	Status    ApplicationStatus `json:"status"`
	DecideAt  time.Time         `json:"decideAt"`
}

// Interview scheduled after a successful application
type Interview struct {
	JobID       string    `json:"jobId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// EndReason for a closed position
type EndReason string

const (
	EndQuit     EndReason = "quit"
	EndFired    EndReason = "fired"
	EndReplaced EndReason = "replaced"
)

// JobRecord is a closed position in the job history
type JobRecord struct {
	Job              Job       `json:"job"`
	StartedDay       int       `json:"startedDay"`
	EndedDay         int       `json:"endedDay"`
	EndedAt          time.Time `json:"endedAt"`
	DaysWorked       int       `json:"daysWorked"`
	FinalPerformance float64   `json:"finalPerformance"`
	Reason           EndReason `json:"reason"`
}

// Career performance defaults
const (
	BaselinePerformance = 50.0
)

// CareerState is the per-save career namespace
type CareerState struct {
	CurrentPosition   *Job          `json:"currentPosition"`
	StartedDay        int           `json:"startedDay"`
	Experience        int           `json:"experience"`
	WorkDaysCompleted int           `json:"workDaysCompleted"`
	PerformanceRating float64       `json:"performanceRating"`
	Applications      []Application `json:"applications"`
	Interviews        []Interview   `json:"interviews"`
	JobHistory        []JobRecord   `json:"jobHistory"`
}

// DefaultCareer returns an unemployed career with no history.
func DefaultCareer() CareerState {
	return CareerState{
		PerformanceRating: BaselinePerformance,
		Applications:      []Application{},
		Interviews:        []Interview{},
		JobHistory:        []JobRecord{},
	}
}

// CareerStatistics summarizes the career for display
type CareerStatistics struct {
	TotalExperience    int    `json:"totalExperience"`
	CurrentPerformance int    `json:"currentPerformance"`
	TotalJobsHeld      int    `json:"totalJobsHeld"`
	CurrentJobLevel    string `json:"currentJobLevel"`
	CurrentJobTrack    string `json:"currentJobTrack"`
}
