package validator

import "time"

// LoginRequest is the credential pair forwarded to the upstream auth endpoint
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// ListParams are the query parameters every paginated page accepts
type ListParams struct {
	Search   *string `form:"search" validate:"omitempty,max=200"`
	Page     *int    `form:"page" validate:"omitnil,min=1"`
	PageSize *int    `form:"page_size" validate:"omitnil,page_size"`
}

// ProjectRequest is used for both create and update
type ProjectRequest struct {
	Name        string     `json:"name" validate:"required,not_blank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Status      string     `json:"status" validate:"omitempty,project_status"`
	Progress    *int       `json:"progress" validate:"omitnil,min=0,max=100"`
	MemberIDs   []int64    `json:"team_members" validate:"omitempty,max=100,dive,min=1"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

type SurveyQuestionRequest struct {
	Text    string   `json:"text" validate:"required,not_blank,max=500"`
	Type    string   `json:"type" validate:"required,survey_question_type"`
	Options []string `json:"options" validate:"omitempty,max=20,dive,required,max=200"`
}

type SurveyRequest struct {
	Title       string                  `json:"title" validate:"required,not_blank,max=200"`
	Description string                  `json:"description" validate:"max=2000"`
	Questions   []SurveyQuestionRequest `json:"questions" validate:"required,min=1,max=50,dive"`
	DueDate     *time.Time              `json:"due_date" validate:"omitempty,not_past"`
}

type ActionItemRequest struct {
	Title       string     `json:"title" validate:"required,not_blank,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,priority"`
	AssignedTo  *int64     `json:"assigned_to" validate:"omitnil,min=1"`
	DueDate     *time.Time `json:"due_date" validate:"omitempty,not_past"`
}

type ActionItemStatusRequest struct {
	Status string `json:"status" validate:"required,action_status"`
}

type CourseAssignmentRequest struct {
	UserIDs []int64    `json:"user_ids" validate:"required,min=1,max=100,dive,min=1"`
	DueDate *time.Time `json:"due_date" validate:"omitempty,not_past"`
}

type ChatMessageRequest struct {
	Content string `json:"content" validate:"required,not_blank,max=2000"`
}
