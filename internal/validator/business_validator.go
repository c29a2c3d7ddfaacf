package validator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teamdash/team-dashboard/internal/listquery"
	"github.com/teamdash/team-dashboard/internal/models"
)

// ValidationError represents a single field failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

var (
	surveyQuestionTypes = []string{"text", "rating", "multiple_choice", "yes_no"}
	actionItemStatuses  = []string{"Open", "In Progress", "Completed", "Cancelled"}
	priorities          = []string{models.RiskLow, models.RiskMedium, models.RiskHigh}
	projectStatuses     = []string{"Planning", "Active", "On Hold", "Completed"}
)

// Validator wraps go-playground/validator with the dashboard's request rules
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	v := &Validator{validate: validator.New()}
	v.validate.RegisterTagNameFunc(fieldName)
	v.registerBusinessRules()
	return v
}

// Validate runs struct validation and returns nil when the value is valid
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ValidateProject adds the date ordering rule on top of struct validation
func (v *Validator) ValidateProject(req *ProjectRequest) error {
	var errs ValidationErrors
	if err := v.Validate(req); err != nil {
		errs = append(errs, asValidationErrors(err)...)
	}
	if req.StartDate != nil && req.DueDate != nil && req.DueDate.Before(*req.StartDate) {
		errs = append(errs, ValidationError{
			Field:   "due_date",
			Message: "must not be before start_date",
			Value:   req.DueDate,
			Rule:    "business_logic",
		})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateSurvey checks that choice questions carry options
func (v *Validator) ValidateSurvey(req *SurveyRequest) error {
	var errs ValidationErrors
	if err := v.Validate(req); err != nil {
		errs = append(errs, asValidationErrors(err)...)
	}
	for i, q := range req.Questions {
		if q.Type == "multiple_choice" && len(q.Options) < 2 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("questions[%d].options", i),
				Message: "multiple choice questions need at least two options",
				Value:   len(q.Options),
				Rule:    "business_logic",
			})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ToValidationErrors converts validator errors into the API shape
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func asValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return ToValidationErrors(err)
}

func (v *Validator) registerBusinessRules() {
	v.validate.RegisterValidation("page_size", func(fl validator.FieldLevel) bool {
		return listquery.ValidPageSize(int(fl.Field().Int()))
	})

	v.validate.RegisterValidation("survey_question_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(surveyQuestionTypes, fl.Field().String())
	})

	v.validate.RegisterValidation("action_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(actionItemStatuses, fl.Field().String())
	})

	v.validate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return slices.Contains(priorities, fl.Field().String())
	})

	v.validate.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(projectStatuses, fl.Field().String())
	})

	v.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// Optional dates must not lie in the past.
	v.validate.RegisterValidation("not_past", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return true
		}
		return !t.Before(time.Now().Truncate(24 * time.Hour))
	})
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "page_size":
		return fmt.Sprintf("must be one of %v", listquery.PageSizes)
	case "survey_question_type":
		return fmt.Sprintf("must be one of %s", strings.Join(surveyQuestionTypes, ", "))
	case "action_status":
		return fmt.Sprintf("must be one of %s", strings.Join(actionItemStatuses, ", "))
	case "priority":
		return "must be Low, Medium, or High"
	case "project_status":
		return fmt.Sprintf("must be one of %s", strings.Join(projectStatuses, ", "))
	case "not_blank":
		return "must not be blank"
	case "not_past":
		return "must not be in the past"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", fe.Tag())
	}
}

// fieldName reports json or form names so errors match what clients sent.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
