// Package rules holds the outcome vocabulary shared by every namespace of the
// simulation: the rejection errors returned by rule checks and the random
// source used for probabilistic outcomes.
//
// Every rejection is an expected business outcome. Callers branch on them with
// errors.Is; the specific errors wrap their general class, so
// errors.Is(err, ErrRequirementNotMet) also holds for ErrEducationTooLow.
package rules

import (
	"errors"
	"fmt"
)

// Resource gates
var (
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrInsufficientEnergy          = errors.New("insufficient energy")
	ErrInsufficientSkillPoints     = errors.New("insufficient skill points")
	ErrInsufficientAttributePoints = errors.New("insufficient attribute points")
)

// Business-rule rejections
var (
	ErrNotLearnable           = errors.New("skill not learnable")
	ErrPrerequisiteNotMet     = fmt.Errorf("%w: prerequisite not met", ErrNotLearnable)
	ErrAlreadyLearned         = fmt.Errorf("%w: already learned", ErrNotLearnable)
	ErrRequirementNotMet      = errors.New("requirement not met")
	ErrEducationTooLow        = fmt.Errorf("%w: education too low", ErrRequirementNotMet)
	ErrReputationTooLow       = fmt.Errorf("%w: reputation too low", ErrRequirementNotMet)
	ErrMissingSkills          = fmt.Errorf("%w: missing required skills", ErrRequirementNotMet)
	ErrAlreadyApplied         = errors.New("already applied")
	ErrNoActivePosition       = errors.New("no active position")
	ErrInvalidStageTransition = errors.New("invalid stage transition")
	ErrDevelopmentInProgress  = fmt.Errorf("%w: a product is already in development", ErrInvalidStageTransition)
	ErrInvalidEducationStep   = errors.New("invalid education step")
	ErrAttributeMaxed         = errors.New("attribute at maximum")
	ErrAlreadyOwned           = errors.New("already owned")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNoCharacter            = errors.New("no character created")
)

// ErrNotFound reports an unknown skill, job, idea, housing type or attribute.
var ErrNotFound = errors.New("not found")

// codes maps each rejection to the stable identifier exposed to clients.
// Specific errors are listed before the classes they wrap.
var codes = []struct {
	err  error
	code string
}{
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrInsufficientEnergy, "insufficient_energy"},
	{ErrInsufficientSkillPoints, "insufficient_skill_points"},
	{ErrInsufficientAttributePoints, "insufficient_attribute_points"},
	{ErrPrerequisiteNotMet, "prerequisite_not_met"},
	{ErrAlreadyLearned, "already_learned"},
	{ErrNotLearnable, "not_learnable"},
	{ErrEducationTooLow, "education_too_low"},
	{ErrReputationTooLow, "reputation_too_low"},
	{ErrMissingSkills, "missing_skills"},
	{ErrRequirementNotMet, "requirement_not_met"},
	{ErrAlreadyApplied, "already_applied"},
	{ErrNoActivePosition, "no_active_position"},
	{ErrDevelopmentInProgress, "development_in_progress"},
	{ErrInvalidStageTransition, "invalid_stage_transition"},
	{ErrInvalidEducationStep, "invalid_education_step"},
	{ErrAttributeMaxed, "attribute_maxed"},
	{ErrAlreadyOwned, "already_owned"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrNoCharacter, "no_character"},
	{ErrNotFound, "not_found"},
}

// Code returns the client-facing identifier of a rule rejection, or "" if err
// is not one.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// IsRejection reports whether err is an expected rule rejection rather than
// an infrastructure failure.
func IsRejection(err error) bool {
	return Code(err) != ""
}

// NotFound wraps ErrNotFound with the kind and id that was looked up.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}
