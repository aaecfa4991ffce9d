package life

import (
	"fmt"

	"devlife/internal/models"
	"devlife/internal/rules"
)

// ExamResult reports a passed exam
type ExamResult struct {
	Education       models.Education `json:"education"`
	Cost            int              `json:"cost"`
	ReputationGain  int              `json:"reputationGain"`
	AttributePoints int              `json:"attributePoints"`
}

// TakeExam advances education by exactly one level.
func (e *Engine) TakeExam(level models.Education, day int) (ExamResult, error) {
	if !level.Valid() {
		return ExamResult{}, rules.NotFound("education", string(level))
	}
	current := e.ledger.Education()
	next, ok := current.Next()
	if !ok || level != next {
		return ExamResult{}, fmt.Errorf("%w: %s cannot move to %s", rules.ErrInvalidEducationStep, current, level)
	}
	exam, ok := e.cat.Exam(level)
	if !ok {
		return ExamResult{}, rules.NotFound("exam", string(level))
	}
	if exam.Cost > 0 && !e.ledger.SpendMoney(exam.Cost, "exam_"+string(level)) {
		return ExamResult{}, fmt.Errorf("%w: %s exam costs %d, have %d", rules.ErrInsufficientFunds, level, exam.Cost, e.ledger.Money())
	}
	e.ledger.SetEducation(level)
	e.ledger.AddReputation(exam.Reputation)
	e.ledger.RecordEducationBonus(level, exam.AttributePoints, day)
	return ExamResult{
		Education:       level,
		Cost:            exam.Cost,
		ReputationGain:  exam.Reputation,
		AttributePoints: exam.AttributePoints,
	}, nil
}

// NextExam returns the exam for the level above the current one.
func (e *Engine) NextExam() (models.Education, int, bool) {
	next, ok := e.ledger.Education().Next()
	if !ok {
		return "", 0, false
	}
	exam, ok := e.cat.Exam(next)
	if !ok {
		return "", 0, false
	}
	return next, exam.Cost, true
}
