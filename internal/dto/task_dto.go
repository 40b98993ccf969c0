package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Instructions string  `json:"instructions" validate:"required,min=10"`
	PriceCents   int64   `json:"price_cents" validate:"gte=0"`
	WebhookURL   *string `json:"webhook_url" validate:"omitempty,url"`
}

type UpdateTaskRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Instructions string  `json:"instructions" validate:"required,min=10"`
	PriceCents   int64   `json:"price_cents" validate:"gte=0"`
	WebhookURL   *string `json:"webhook_url" validate:"omitempty,url"`
	Active       bool    `json:"active"`
}

type TaskListRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

type TaskResponse struct {
	Id           uuid.UUID `json:"id"`
	BusinessId   uuid.UUID `json:"business_id"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions"`
	PriceCents   int64     `json:"price_cents"`
	WebhookURL   *string   `json:"webhook_url,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
