// FILE: internal/service/submission_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"posemarket-be/internal/dto"
	"posemarket-be/internal/entity"
	"posemarket-be/internal/pkg/logger"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/blobstore"
	"posemarket-be/pkg/events"
	pktNats "posemarket-be/pkg/nats"
	"posemarket-be/pkg/pose"
	"posemarket-be/pkg/webhook"

	"github.com/google/uuid"
)

// duplicateDistance is the cosine-distance bound under which two pose
// signatures for the same task are flagged as likely duplicates. The
// flag is a reviewer hint, never an automatic rejection.
const duplicateDistance = 0.05

type ISubmissionService interface {
	CreateSubmission(ctx context.Context, contributorId uuid.UUID, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error)
	GetSubmission(ctx context.Context, callerId uuid.UUID, submissionId uuid.UUID) (*dto.SubmissionResponse, error)
	ListMine(ctx context.Context, contributorId uuid.UUID, req *dto.SubmissionListRequest) (*dto.SubmissionListResponse, error)
	ListForTask(ctx context.Context, businessId, taskId uuid.UUID, req *dto.SubmissionListRequest) (*dto.SubmissionListResponse, error)
	Export(ctx context.Context, businessId uuid.UUID, req *dto.ExportRequest) (*dto.ExportResponse, error)
}

type submissionService struct {
	uowFactory       unitofwork.RepositoryFactory
	blobStore        blobstore.Store
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	notifier         *webhook.Notifier
	log              logger.ILogger
}

func NewSubmissionService(
	uowFactory unitofwork.RepositoryFactory,
	blobStore blobstore.Store,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	notifier *webhook.Notifier,
	log logger.ILogger,
) ISubmissionService {
	return &submissionService{
		uowFactory:       uowFactory,
		blobStore:        blobStore,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		notifier:         notifier,
		log:              log,
	}
}

func toSubmissionResponse(s *entity.Submission) *dto.SubmissionResponse {
	res := &dto.SubmissionResponse{
		Id:               s.Id,
		TaskId:           s.TaskId,
		ContributorId:    s.ContributorId,
		Status:           string(s.Status),
		VideoURL:         s.VideoRef,
		PoseDataURL:      s.PoseDataRef,
		FrameCount:       s.FrameCount,
		DurationMs:       s.DurationMs,
		Redacted:         s.Redacted,
		Rating:           s.Rating,
		Feedback:         s.Feedback,
		DuplicateWarning: s.DuplicateWarning,
		CreatedAt:        s.CreatedAt,
		DecidedAt:        s.DecidedAt,
	}
	if s.AiVerification != nil {
		res.AiVerification = &dto.VerificationDTO{
			Verdict:    string(s.AiVerification.Verdict),
			Confidence: s.AiVerification.Confidence,
			Reason:     s.AiVerification.Reason,
			Model:      s.AiVerification.Model,
		}
	}
	return res
}

func (s *submissionService) CreateSubmission(ctx context.Context, contributorId uuid.UUID, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: req.TaskId})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.ErrNotFound
	}
	if !task.Active {
		return nil, fmt.Errorf("task is closed for submissions")
	}

	subId := uuid.New()

	poseJSON, err := json.Marshal(req.PoseData)
	if err != nil {
		return nil, err
	}
	poseRef, err := s.blobStore.Put(ctx, fmt.Sprintf("submissions/%s/pose.json", subId), poseJSON, "application/json")
	if err != nil {
		return nil, err
	}

	sub := &entity.Submission{
		Id:            subId,
		TaskId:        req.TaskId,
		ContributorId: contributorId,
		Status:        entity.SubmissionStatusPending,
		VideoRef:      req.VideoRef,
		PoseDataRef:   poseRef,
		PoseData:      req.PoseData,
		FrameCount:    req.FrameCount,
		DurationMs:    req.DurationMs,
		Redacted:      req.Redacted,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	// Duplicate screen against earlier submissions for the same task.
	// Best effort: a failed scan never blocks the submission.
	sig := pose.Signature(req.PoseData)
	nearest, distance, err := uow.SubmissionRepository().FindNearestSignature(ctx, req.TaskId, sig)
	if err != nil {
		s.log.Warn("submission", "duplicate scan failed", map[string]interface{}{
			"task_id": req.TaskId.String(), "error": err.Error(),
		})
	} else if nearest != nil && distance < duplicateDistance {
		sub.DuplicateWarning = true
	}

	if err := uow.SubmissionRepository().Create(ctx, sub); err != nil {
		return nil, err
	}

	// Queue the automated verification.
	msg := dto.PublishVerifySubmissionMessage{SubmissionId: sub.Id}
	msgJson, err := json.Marshal(msg)
	if err == nil {
		if err := s.publisherService.Publish(ctx, msgJson); err != nil {
			s.log.Warn("submission", "failed to queue verification", map[string]interface{}{
				"submission_id": sub.Id.String(), "error": err.Error(),
			})
		}
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.SubmissionCreated,
			Data: map[string]interface{}{
				"submission_id":  sub.Id,
				"task_id":        task.Id,
				"contributor_id": contributorId,
				"occurred_at":    time.Now(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("submission", "failed to publish created event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if task.WebhookURL != nil {
		payload := map[string]interface{}{
			"submission_id": sub.Id,
			"task_id":       task.Id,
			"event":         events.SubmissionCreated,
		}
		if err := s.notifier.Notify(ctx, *task.WebhookURL, payload); err != nil {
			s.log.Warn("submission", "webhook delivery failed", map[string]interface{}{
				"url": *task.WebhookURL, "error": err.Error(),
			})
		}
	}

	return toSubmissionResponse(sub), nil
}

func (s *submissionService) GetSubmission(ctx context.Context, callerId uuid.UUID, submissionId uuid.UUID) (*dto.SubmissionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubmissionRepository().FindOne(ctx, specification.ByID{ID: submissionId})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.ErrNotFound
	}

	if sub.ContributorId != callerId {
		task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: sub.TaskId})
		if err != nil {
			return nil, err
		}
		if task == nil || task.BusinessId != callerId {
			return nil, apperrors.ErrUnauthorized
		}
	}

	return toSubmissionResponse(sub), nil
}

func (s *submissionService) ListMine(ctx context.Context, contributorId uuid.UUID, req *dto.SubmissionListRequest) (*dto.SubmissionListResponse, error) {
	return s.list(ctx, req, specification.OwnedByContributor{ContributorID: contributorId})
}

func (s *submissionService) ListForTask(ctx context.Context, businessId, taskId uuid.UUID, req *dto.SubmissionListRequest) (*dto.SubmissionListResponse, error) {
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

	return s.list(ctx, req, specification.ForTask{TaskID: taskId})
}

func (s *submissionService) list(ctx context.Context, req *dto.SubmissionListRequest, scope specification.Specification) (*dto.SubmissionListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{scope}
	if req.Status != "" {
		specs = append(specs, specification.WithStatus{Status: req.Status})
	}

	total, err := uow.SubmissionRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	subs, err := uow.SubmissionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.SubmissionListResponse{
		Submissions: make([]dto.SubmissionResponse, 0, len(subs)),
		Total:       total,
		Page:        page,
		Limit:       limit,
	}
	for _, sub := range subs {
		res.Submissions = append(res.Submissions, *toSubmissionResponse(sub))
	}
	return res, nil
}

func (s *submissionService) Export(ctx context.Context, businessId uuid.UUID, req *dto.ExportRequest) (*dto.ExportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: req.TaskId})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.ErrNotFound
	}
	if task.BusinessId != businessId {
		return nil, apperrors.ErrUnauthorized
	}

	specs := []specification.Specification{specification.ForTask{TaskID: req.TaskId}}
	if req.Status != "" {
		specs = append(specs, specification.WithStatus{Status: req.Status})
	}
	specs = append(specs, specification.OrderBy{Field: "created_at", Desc: false})

	subs, err := uow.SubmissionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.ExportResponse{
		TaskId: req.TaskId,
		Items:  make([]dto.ExportItem, 0, len(subs)),
		Count:  len(subs),
	}
	for _, sub := range subs {
		item := dto.ExportItem{
			Id:     sub.Id,
			Status: string(sub.Status),
		}
		if req.IncludeVideo {
			item.VideoURL = sub.VideoRef
		}
		if req.IncludePose {
			item.PoseData = sub.PoseData
		}
		if req.IncludeMetadata {
			item.Metadata = &dto.ExportMetadata{
				ContributorId: sub.ContributorId,
				FrameCount:    sub.FrameCount,
				DurationMs:    sub.DurationMs,
				Redacted:      sub.Redacted,
				Rating:        sub.Rating,
				CreatedAt:     sub.CreatedAt,
				DecidedAt:     sub.DecidedAt,
			}
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}
