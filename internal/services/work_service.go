package services

import (
	"context"
	"log/slog"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/validator"
)

// workService forwards validated mutations to the upstream API. Callers have
// already passed the capability check for the action.
type workService struct {
	api       *apiclient.Client
	caches    *cache.CacheManager
	validator *validator.Validator
	logger    *slog.Logger
}

func NewWorkService(api *apiclient.Client, caches *cache.CacheManager, v *validator.Validator, logger *slog.Logger) WorkService {
	return &workService{api: api, caches: caches, validator: v, logger: logger}
}

func (s *workService) GetSurvey(ctx context.Context, id int64) (*models.Survey, error) {
	survey, err := s.api.Surveys.Get(ctx, id)
	if err != nil {
		return nil, translateUpstream("survey", "load", err)
	}
	return survey, nil
}

func (s *workService) CreateProject(ctx context.Context, req *validator.ProjectRequest) (*models.Project, error) {
	if err := s.validator.ValidateProject(req); err != nil {
		return nil, err
	}

	project, err := s.api.Projects.Create(ctx, req)
	if err != nil {
		return nil, translateUpstream("project", "create", err)
	}

	s.afterMutation(ctx, "Project created", "project_id", project.ID)
	return project, nil
}

func (s *workService) UpdateProject(ctx context.Context, id int64, req *validator.ProjectRequest) (*models.Project, error) {
	if err := s.validator.ValidateProject(req); err != nil {
		return nil, err
	}

	project, err := s.api.Projects.Update(ctx, id, req)
	if err != nil {
		return nil, translateUpstream("project", "update", err)
	}

	s.afterMutation(ctx, "Project updated", "project_id", id)
	return project, nil
}

func (s *workService) DeleteProject(ctx context.Context, id int64) error {
	if err := s.api.Projects.Delete(ctx, id); err != nil {
		return translateUpstream("project", "delete", err)
	}
	s.afterMutation(ctx, "Project deleted", "project_id", id)
	return nil
}

func (s *workService) CreateSurvey(ctx context.Context, req *validator.SurveyRequest) (*models.Survey, error) {
	if err := s.validator.ValidateSurvey(req); err != nil {
		return nil, err
	}

	survey, err := s.api.Surveys.Create(ctx, req)
	if err != nil {
		return nil, translateUpstream("survey", "create", err)
	}

	s.afterMutation(ctx, "Survey created", "survey_id", survey.ID)
	return survey, nil
}

func (s *workService) DeleteSurvey(ctx context.Context, id int64) error {
	if err := s.api.Surveys.Delete(ctx, id); err != nil {
		return translateUpstream("survey", "delete", err)
	}
	s.afterMutation(ctx, "Survey deleted", "survey_id", id)
	return nil
}

func (s *workService) CreateActionItem(ctx context.Context, req *validator.ActionItemRequest) (*models.ActionItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.api.ActionItems.Create(ctx, req)
	if err != nil {
		return nil, translateUpstream("action item", "create", err)
	}

	s.afterMutation(ctx, "Action item created", "action_item_id", item.ID)
	return item, nil
}

func (s *workService) UpdateActionItemStatus(ctx context.Context, id int64, req *validator.ActionItemStatusRequest) (*models.ActionItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.api.UpdateActionItemStatus(ctx, id, req.Status)
	if err != nil {
		return nil, translateUpstream("action item", "update", err)
	}

	s.afterMutation(ctx, "Action item status changed", "action_item_id", id, "status", req.Status)
	return item, nil
}

func (s *workService) AssignCourse(ctx context.Context, courseID int64, req *validator.CourseAssignmentRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if err := s.api.AssignCourse(ctx, courseID, req); err != nil {
		return translateUpstream("course", "assign", err)
	}

	s.afterMutation(ctx, "Course assigned", "course_id", courseID, "assignees", len(req.UserIDs))
	return nil
}

// afterMutation drops cached dashboard and org data so the next read is fresh.
func (s *workService) afterMutation(ctx context.Context, msg string, args ...any) {
	cache.InvalidatePageCaches(ctx, s.caches)
	requestLogger(ctx, s.logger).InfoContext(ctx, msg, args...)
}
