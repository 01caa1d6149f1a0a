package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/doannc02/exam-process-service/internal/models"
)

// placeholderValues are sentinel strings some clients send for unset fields.
// They count as missing, not as data.
var placeholderValues = map[string]bool{
	"":       true,
	"string": true,
}

// IsPlaceholder reports whether a request string should be treated as absent.
func IsPlaceholder(value string) bool {
	return placeholderValues[strings.TrimSpace(strings.ToLower(value))]
}

// statusTransitions is the full status state machine. A status maps to the
// statuses it may move to; approved is terminal.
var statusTransitions = map[models.ProposalStatus][]models.ProposalStatus{
	models.StatusInProgress:      {models.StatusPendingApproval},
	models.StatusPendingApproval: {models.StatusApproved, models.StatusRejected, models.StatusInProgress},
	models.StatusRejected:        {models.StatusInProgress, models.StatusPendingApproval},
	models.StatusApproved:        {},
}

// BusinessValidator holds the tag validator plus domain rules that need more
// context than a struct tag can carry.
type BusinessValidator struct {
	validate *validator.Validate
}

func NewBusinessValidator() *BusinessValidator {
	v := validator.New()

	v.RegisterValidation("proposal_status", func(fl validator.FieldLevel) bool {
		return models.ValidProposalStatus(models.ProposalStatus(fl.Field().String()))
	})

	v.RegisterValidation("not_placeholder", func(fl validator.FieldLevel) bool {
		return !IsPlaceholder(fl.Field().String())
	})

	return &BusinessValidator{validate: v}
}

// Validate runs tag validation on s and converts failures to field-keyed
// errors. Returns nil when s passes.
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "request",
			Message: err.Error(),
		}}
	}

	var errs ValidationErrors
	for _, fe := range validationErrs {
		errs = append(errs, ValidationError{
			Field:   toSnakeCase(fe.Field()),
			Message: getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errs
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "not_placeholder":
		return "must not be empty or a placeholder value"
	case "proposal_status":
		return "must be one of: in_progress, pending_approval, approved, rejected"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func toSnakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateStatusTransition checks one edge of the state machine. A no-op
// transition (current == next) is rejected so callers can treat it as a
// distinct condition before reaching here.
func (bv *BusinessValidator) ValidateStatusTransition(current, next models.ProposalStatus) ValidationErrors {
	if !models.ValidProposalStatus(next) {
		return ValidationErrors{{
			Field:   "status",
			Message: "must be one of: in_progress, pending_approval, approved, rejected",
			Value:   next,
			Rule:    "proposal_status",
		}}
	}

	allowed, ok := statusTransitions[current]
	if !ok {
		return ValidationErrors{{
			Field:   "status",
			Message: fmt.Sprintf("unknown current status %q", current),
			Value:   current,
			Rule:    "status_transition",
		}}
	}

	for _, s := range allowed {
		if s == next {
			return nil
		}
	}

	if current == models.StatusApproved {
		return ValidationErrors{{
			Field:   "status",
			Message: "approved proposals cannot change status",
			Value:   next,
			Rule:    "status_transition",
		}}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// CascadeRequiresReadyChildren reports whether moving to target demands that
// every non-approved descendant already sits in pending_approval.
func CascadeRequiresReadyChildren(target models.ProposalStatus) bool {
	return target == models.StatusApproved || target == models.StatusRejected
}

// ValidateStatusCascade checks every exam set and exam under a proposal
// against the target status before anything is written. Sets already approved
// are skipped wholesale, their exams included; approved exams under other
// sets are likewise exempt. All violations are collected so the caller can
// report the full picture in one response.
//
// examsBySet must hold the exams for every set in sets, keyed by set ID.
func (bv *BusinessValidator) ValidateStatusCascade(
	sets []*models.ExamSet,
	examsBySet map[uint][]*models.Exam,
	target models.ProposalStatus,
) ValidationErrors {
	if !CascadeRequiresReadyChildren(target) {
		return nil
	}

	var errs ValidationErrors

	for _, set := range sets {
		if set.Status == models.StatusApproved {
			continue
		}
		exams := examsBySet[set.ID]

		if set.Status != models.StatusPendingApproval {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("exam_sets[%d].status", set.ID),
				Message: fmt.Sprintf("exam set %q must be pending_approval before the proposal can be %s", set.Name, target),
				Value:   set.Status,
				Rule:    "cascade_status",
			})
		}

		if len(exams) < set.ExamQuantity {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("exam_sets[%d].exams", set.ID),
				Message: fmt.Sprintf("exam set %q has %d exams but requires %d", set.Name, len(exams), set.ExamQuantity),
				Value:   len(exams),
				Rule:    "cascade_quantity",
			})
		}

		for _, exam := range exams {
			if exam.Status == models.StatusApproved {
				continue
			}
			if exam.Status != models.StatusPendingApproval {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("exam_sets[%d].exams[%d].status", set.ID, exam.ID),
					Message: fmt.Sprintf("exam %q must be pending_approval before the proposal can be %s", exam.ExamCode, target),
					Value:   exam.Status,
					Rule:    "cascade_status",
				})
			}
		}
	}

	return errs
}

// ValidateDateRange rejects ranges where the end precedes the start. Either
// side may be nil, meaning open-ended.
func (bv *BusinessValidator) ValidateDateRange(start, end *time.Time) ValidationErrors {
	if start == nil || end == nil {
		return nil
	}
	if end.Before(*start) {
		return ValidationErrors{{
			Field:   "end_date",
			Message: "must not be before start_date",
			Value:   end.Format(DateLayout),
			Rule:    "date_range",
		}}
	}
	return nil
}
