package implementation

import (
	"context"
	"errors"
	"time"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/mapper"
	"posemarket-be/internal/model"
	"posemarket-be/internal/repository/contract"
	"posemarket-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SubmissionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubmissionMapper
}

func NewSubmissionRepository(db *gorm.DB) contract.SubmissionRepository {
	return &SubmissionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubmissionMapper(),
	}
}

func (r *SubmissionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubmissionRepositoryImpl) Create(ctx context.Context, sub *entity.Submission) error {
	m := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*sub = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubmissionRepositoryImpl) Update(ctx context.Context, sub *entity.Submission) error {
	m := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*sub = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubmissionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error) {
	var m model.Submission
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubmissionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error) {
	var models []*model.Submission
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SubmissionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Submission{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubmissionRepositoryImpl) UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus, toStatus entity.SubmissionStatus, feedback *string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     string(toStatus),
		"decided_at": &now,
		"updated_at": now,
	}
	if feedback != nil {
		updates["feedback"] = feedback
	}
	res := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ? AND status = ?", id, string(fromStatus)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SubmissionRepositoryImpl) AttachVerification(ctx context.Context, id uuid.UUID, verificationJSON []byte) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ? AND status = ? AND ai_verification IS NULL", id, string(entity.SubmissionStatusPending)).
		Update("ai_verification", verificationJSON)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SubmissionRepositoryImpl) SetRating(ctx context.Context, id uuid.UUID, rating int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ?", id).
		Update("rating", rating)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SubmissionRepositoryImpl) FindNearestSignature(ctx context.Context, taskId uuid.UUID, signature []float32) (*entity.Submission, float64, error) {
	var row struct {
		model.Submission
		Distance float64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Select("*, pose_signature <=> ? AS distance", pgvector.NewVector(signature)).
		Where("task_id = ?", taskId).
		Order("distance ASC").
		Limit(1).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return r.mapper.ToEntity(&row.Submission), row.Distance, nil
}
