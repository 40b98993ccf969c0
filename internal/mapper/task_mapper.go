package mapper

import (
	"posemarket-be/internal/entity"
	"posemarket-be/internal/model"
)

type TaskMapper struct{}

func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

func (m *TaskMapper) ToEntity(t *model.Task) *entity.Task {
	if t == nil {
		return nil
	}
	return &entity.Task{
		Id:           t.Id,
		BusinessId:   t.BusinessId,
		Title:        t.Title,
		Instructions: t.Instructions,
		PriceCents:   t.PriceCents,
		WebhookURL:   t.WebhookURL,
		Active:       t.Active,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (m *TaskMapper) ToModel(t *entity.Task) *model.Task {
	if t == nil {
		return nil
	}
	return &model.Task{
		Id:           t.Id,
		BusinessId:   t.BusinessId,
		Title:        t.Title,
		Instructions: t.Instructions,
		PriceCents:   t.PriceCents,
		WebhookURL:   t.WebhookURL,
		Active:       t.Active,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (m *TaskMapper) ToEntities(models []*model.Task) []*entity.Task {
	out := make([]*entity.Task, 0, len(models))
	for _, t := range models {
		out = append(out, m.ToEntity(t))
	}
	return out
}
