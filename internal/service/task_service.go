// FILE: internal/service/task_service.go
package service

import (
	"context"
	"time"

	"posemarket-be/internal/dto"
	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"

	"github.com/google/uuid"
)

type ITaskService interface {
	CreateTask(ctx context.Context, businessId uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	UpdateTask(ctx context.Context, businessId, taskId uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTask(ctx context.Context, businessId, taskId uuid.UUID) error
	GetTask(ctx context.Context, taskId uuid.UUID) (*dto.TaskResponse, error)
	ListMyTasks(ctx context.Context, businessId uuid.UUID, req *dto.TaskListRequest) (*dto.TaskListResponse, error)
	ListOpenTasks(ctx context.Context, req *dto.TaskListRequest) (*dto.TaskListResponse, error)
}

type taskService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewTaskService(uowFactory unitofwork.RepositoryFactory) ITaskService {
	return &taskService{
		uowFactory: uowFactory,
	}
}

func toTaskResponse(t *entity.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		Id:           t.Id,
		BusinessId:   t.BusinessId,
		Title:        t.Title,
		Instructions: t.Instructions,
		PriceCents:   t.PriceCents,
		WebhookURL:   t.WebhookURL,
		Active:       t.Active,
		CreatedAt:    t.CreatedAt,
	}
}

func (s *taskService) CreateTask(ctx context.Context, businessId uuid.UUID, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task := &entity.Task{
		Id:           uuid.New(),
		BusinessId:   businessId,
		Title:        req.Title,
		Instructions: req.Instructions,
		PriceCents:   req.PriceCents,
		WebhookURL:   req.WebhookURL,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uow.TaskRepository().Create(ctx, task); err != nil {
		return nil, err
	}
	return toTaskResponse(task), nil
}

func (s *taskService) UpdateTask(ctx context.Context, businessId, taskId uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.ErrNotFound
	}
	if task.BusinessId != businessId {
		return nil, apperrors.ErrUnauthorized
	}

	task.Title = req.Title
	task.Instructions = req.Instructions
	task.PriceCents = req.PriceCents
	task.WebhookURL = req.WebhookURL
	task.Active = req.Active
	task.UpdatedAt = time.Now()

	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return nil, err
	}
	return toTaskResponse(task), nil
}

func (s *taskService) DeleteTask(ctx context.Context, businessId, taskId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
	if err != nil {
		return err
	}
	if task == nil {
		return apperrors.ErrNotFound
	}
	if task.BusinessId != businessId {
		return apperrors.ErrUnauthorized
	}

	return uow.TaskRepository().Delete(ctx, taskId)
}

func (s *taskService) GetTask(ctx context.Context, taskId uuid.UUID) (*dto.TaskResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.ErrNotFound
	}
	return toTaskResponse(task), nil
}

func (s *taskService) ListMyTasks(ctx context.Context, businessId uuid.UUID, req *dto.TaskListRequest) (*dto.TaskListResponse, error) {
	return s.list(ctx, req, specification.OwnedByBusiness{BusinessID: businessId})
}

func (s *taskService) ListOpenTasks(ctx context.Context, req *dto.TaskListRequest) (*dto.TaskListResponse, error) {
	return s.list(ctx, req, specification.ActiveOnly{})
}

func (s *taskService) list(ctx context.Context, req *dto.TaskListRequest, scope specification.Specification) (*dto.TaskListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := uow.TaskRepository().Count(ctx, scope)
	if err != nil {
		return nil, err
	}

	tasks, err := uow.TaskRepository().FindAll(ctx,
		scope,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.TaskListResponse{
		Tasks: make([]dto.TaskResponse, 0, len(tasks)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, t := range tasks {
		res.Tasks = append(res.Tasks, *toTaskResponse(t))
	}
	return res, nil
}
