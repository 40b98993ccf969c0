package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/contract"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/verifier"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memoryStore backs the fake repositories for service tests. It
// interprets only the specifications these services actually use.
type memoryStore struct {
	users        map[uuid.UUID]*entity.User
	tasks        map[uuid.UUID]*entity.Task
	submissions  map[uuid.UUID]*entity.Submission
	transactions []*entity.Transaction

	// canned answer for the duplicate screen
	nearest     *entity.Submission
	nearestDist float64

	// staleLedgerReads makes FindAll miss existing rows, the way a
	// read-committed snapshot misses a concurrent commit. The unique
	// deposit index still applies on Create.
	staleLedgerReads bool

	begun      int
	committed  int
	rolledBack int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[uuid.UUID]*entity.User{},
		tasks:       map[uuid.UUID]*entity.Task{},
		submissions: map[uuid.UUID]*entity.Submission{},
	}
}

func (m *memoryStore) factory() unitofwork.RepositoryFactory {
	return &fakeFactory{store: m}
}

type fakeFactory struct{ store *memoryStore }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

type fakeUnitOfWork struct{ store *memoryStore }

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.store.begun++
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.store.committed++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.store.rolledBack++
	return nil
}

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUnitOfWork) TaskRepository() contract.TaskRepository {
	return &fakeTaskRepo{store: u.store}
}

func (u *fakeUnitOfWork) SubmissionRepository() contract.SubmissionRepository {
	return &fakeSubmissionRepo{store: u.store}
}

func (u *fakeUnitOfWork) TransactionRepository() contract.TransactionRepository {
	return &fakeTransactionRepo{store: u.store}
}

var errNoSuchUser = errors.New("no such user")

func specID(specs []specification.Specification) (uuid.UUID, bool) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return byID.ID, true
		}
	}
	return uuid.Nil, false
}

type fakeUserRepo struct{ store *memoryStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.store.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if id, ok := specID(specs); ok {
		return r.store.users[id], nil
	}
	for _, s := range specs {
		if byEmail, ok := s.(specification.ByEmail); ok {
			for _, u := range r.store.users {
				if u.Email == byEmail.Email {
					return u, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.users)), nil
}

func (r *fakeUserRepo) AdjustBalance(ctx context.Context, userId uuid.UUID, deltaCents int64) error {
	u, ok := r.store.users[userId]
	if !ok {
		// An unknown user cannot hold a balance; mirror the row-count
		// check of the real repository.
		return errNoSuchUser
	}
	u.BalanceCents += deltaCents
	return nil
}

type fakeTaskRepo struct{ store *memoryStore }

func (r *fakeTaskRepo) Create(ctx context.Context, task *entity.Task) error {
	r.store.tasks[task.Id] = task
	return nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *entity.Task) error {
	r.store.tasks[task.Id] = task
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.store.tasks, id)
	return nil
}

func (r *fakeTaskRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error) {
	if id, ok := specID(specs); ok {
		return r.store.tasks[id], nil
	}
	return nil, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	var out []*entity.Task
	for _, t := range r.store.tasks {
		if taskMatches(t, specs) {
			out = append(out, t)
		}
	}
	return out, nil
}

func taskMatches(task *entity.Task, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.OwnedByBusiness:
			if task.BusinessId != spec.BusinessID {
				return false
			}
		case specification.ActiveOnly:
			if !task.Active {
				return false
			}
		}
	}
	return true
}

func (r *fakeTaskRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	tasks, _ := r.FindAll(ctx, specs...)
	return int64(len(tasks)), nil
}

type fakeSubmissionRepo struct{ store *memoryStore }

func (r *fakeSubmissionRepo) Create(ctx context.Context, sub *entity.Submission) error {
	r.store.submissions[sub.Id] = sub
	return nil
}

func (r *fakeSubmissionRepo) Update(ctx context.Context, sub *entity.Submission) error {
	r.store.submissions[sub.Id] = sub
	return nil
}

func (r *fakeSubmissionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error) {
	if id, ok := specID(specs); ok {
		return r.store.submissions[id], nil
	}
	return nil, nil
}

func (r *fakeSubmissionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error) {
	var out []*entity.Submission
	for _, s := range r.store.submissions {
		if submissionMatches(s, specs) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func submissionMatches(sub *entity.Submission, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.OwnedByContributor:
			if sub.ContributorId != spec.ContributorID {
				return false
			}
		case specification.ForTask:
			if sub.TaskId != spec.TaskID {
				return false
			}
		case specification.WithStatus:
			if string(sub.Status) != spec.Status {
				return false
			}
		}
	}
	return true
}

func (r *fakeSubmissionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	subs, _ := r.FindAll(ctx, specs...)
	return int64(len(subs)), nil
}

func (r *fakeSubmissionRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus, toStatus entity.SubmissionStatus, feedback *string) (bool, error) {
	sub, ok := r.store.submissions[id]
	if !ok || sub.Status != fromStatus {
		return false, nil
	}
	sub.Status = toStatus
	now := time.Now()
	sub.DecidedAt = &now
	if feedback != nil {
		sub.Feedback = feedback
	}
	return true, nil
}

func (r *fakeSubmissionRepo) AttachVerification(ctx context.Context, id uuid.UUID, verificationJSON []byte) (bool, error) {
	sub, ok := r.store.submissions[id]
	if !ok || sub.Status != entity.SubmissionStatusPending || sub.AiVerification != nil {
		return false, nil
	}
	var v verifier.Verification
	if err := json.Unmarshal(verificationJSON, &v); err != nil {
		return false, err
	}
	sub.AiVerification = &v
	return true, nil
}

func (r *fakeSubmissionRepo) SetRating(ctx context.Context, id uuid.UUID, rating int) error {
	if sub, ok := r.store.submissions[id]; ok {
		sub.Rating = &rating
	}
	return nil
}

func (r *fakeSubmissionRepo) FindNearestSignature(ctx context.Context, taskId uuid.UUID, signature []float32) (*entity.Submission, float64, error) {
	return r.store.nearest, r.store.nearestDist, nil
}

type fakeTransactionRepo struct{ store *memoryStore }

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	if tx.Type == entity.TransactionTypeDeposit {
		for _, existing := range r.store.transactions {
			if existing.Type == entity.TransactionTypeDeposit && existing.Description == tx.Description {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	r.store.transactions = append(r.store.transactions, tx)
	return nil
}

func (r *fakeTransactionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error) {
	if r.store.staleLedgerReads {
		return nil, nil
	}
	var out []*entity.Transaction
	for _, tx := range r.store.transactions {
		if txMatches(tx, specs) {
			out = append(out, tx)
		}
	}
	for _, s := range specs {
		if ob, ok := s.(specification.OrderBy); ok && ob.Field == "created_at" && ob.Desc {
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		}
	}
	return out, nil
}

func txMatches(tx *entity.Transaction, specs []specification.Specification) bool {
	for _, s := range specs {
		f, ok := s.(specification.FilterBy)
		if !ok {
			continue
		}
		switch f.Field {
		case "user_id":
			if tx.UserId != f.Value.(uuid.UUID) {
				return false
			}
		case "description":
			if tx.Description != f.Value.(string) {
				return false
			}
		}
	}
	return true
}

func (r *fakeTransactionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.transactions)), nil
}

func (r *fakeTransactionRepo) SumAmounts(ctx context.Context, userId uuid.UUID) (int64, error) {
	var sum int64
	for _, tx := range r.store.transactions {
		if tx.UserId == userId {
			sum += tx.AmountCents
		}
	}
	return sum, nil
}

func (r *fakeTransactionRepo) ExistsForSubmission(ctx context.Context, submissionId uuid.UUID, txType entity.TransactionType) (bool, error) {
	for _, tx := range r.store.transactions {
		if tx.SubmissionId != nil && *tx.SubmissionId == submissionId && tx.Type == txType {
			return true, nil
		}
	}
	return false, nil
}

// memoryBlobStore keeps artifacts in a map keyed by path.
type memoryBlobStore struct {
	blobs map[string][]byte
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{blobs: map[string][]byte{}}
}

func (b *memoryBlobStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	b.blobs[path] = data
	return "mem://" + path, nil
}

func (b *memoryBlobStore) Get(ctx context.Context, url string) ([]byte, error) {
	data, ok := b.blobs[trimMemScheme(url)]
	if !ok {
		return nil, errors.New("blob not found: " + url)
	}
	return data, nil
}

func trimMemScheme(url string) string {
	if len(url) > 6 && url[:6] == "mem://" {
		return url[6:]
	}
	return url
}

// capturingPublisher records queued payloads.
type capturingPublisher struct {
	payloads [][]byte
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.payloads = append(p.payloads, payload)
	return nil
}

// nopLogger satisfies ILogger for services under test.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}

func (nopLogger) Sync() error { return nil }

// recordingEmail captures notification sends.
type recordingEmail struct {
	rejections []string
	approvals  []string
}

func (e *recordingEmail) SendRejectionNotice(toEmail, taskTitle, feedback string) error {
	e.rejections = append(e.rejections, toEmail)
	return nil
}

func (e *recordingEmail) SendApprovalNotice(toEmail, taskTitle string, amountCents int64) error {
	e.approvals = append(e.approvals, toEmail)
	return nil
}
