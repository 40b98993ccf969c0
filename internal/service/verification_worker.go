// FILE: internal/service/verification_worker.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"posemarket-be/internal/dto"
	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/blobstore"
	"posemarket-be/pkg/capture"
	"posemarket-be/pkg/verifier"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// verifySampleCount frames (begin, middle, end) are enough signal for a
// plausibility check without burning model quota on full sequences.
const verifySampleCount = 3

type IVerificationWorker interface {
	Consume(ctx context.Context) error
}

type verificationWorker struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	blobStore  blobstore.Store
	chain      *verifier.Chain
	moderation IModerationService
}

func NewVerificationWorker(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	blobStore blobstore.Store,
	chain *verifier.Chain,
	moderation IModerationService,
) IVerificationWorker {
	return &verificationWorker{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		blobStore:  blobStore,
		chain:      chain,
		moderation: moderation,
	}
}

func (w *verificationWorker) Consume(ctx context.Context) error {
	messages, err := w.pubSub.Subscribe(ctx, w.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			w.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (w *verificationWorker) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishVerifySubmissionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal verification message: %v", err)
		msg.Ack() // invalid payload will never become valid
		return
	}

	log.Printf("[INFO] Verifying submission %s", payload.SubmissionId)

	uow := w.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubmissionRepository().FindOne(ctx, specification.ByID{ID: payload.SubmissionId})
	if err != nil {
		log.Printf("[ERROR] Failed to load submission %s: %v", payload.SubmissionId, err)
		msg.Nack()
		return
	}
	if sub == nil {
		log.Printf("[WARN] Submission %s gone, skipping verification", payload.SubmissionId)
		msg.Ack()
		return
	}
	if sub.Status != entity.SubmissionStatusPending || sub.AiVerification != nil {
		// A human beat the worker to it, or a redelivery. Either way the
		// verdict window is closed.
		msg.Ack()
		return
	}

	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: sub.TaskId})
	if err != nil {
		log.Printf("[ERROR] Failed to load task %s: %v", sub.TaskId, err)
		msg.Nack()
		return
	}
	taskContext := ""
	if task != nil {
		taskContext = task.Title + ": " + task.Instructions
	}

	video, err := w.blobStore.Get(ctx, sub.VideoRef)
	if err != nil {
		log.Printf("[ERROR] Failed to fetch video for %s: %v", payload.SubmissionId, err)
		msg.Nack()
		return
	}

	allFrames, err := capture.DecodeFrames(video)
	if err != nil || len(allFrames) == 0 {
		log.Printf("[WARN] Video for %s not decodable, skipping verification: %v", payload.SubmissionId, err)
		msg.Ack()
		return
	}
	frames := capture.SampleFrames(allFrames, verifySampleCount)

	verdict, err := w.chain.Verify(ctx, frames, taskContext)
	if err != nil {
		if errors.Is(err, apperrors.ErrVerifierUnavailable) {
			// Every model exhausted. The submission stays pending with no
			// verdict; human review proceeds without the hint.
			log.Printf("[WARN] Verification unavailable for %s, leaving unverified", payload.SubmissionId)
			msg.Ack()
			return
		}
		log.Printf("[ERROR] Verification failed for %s: %v", payload.SubmissionId, err)
		msg.Nack()
		return
	}

	if err := w.moderation.AttachVerdict(ctx, payload.SubmissionId, verdict); err != nil {
		log.Printf("[ERROR] Failed to attach verdict for %s: %v", payload.SubmissionId, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Submission %s verified: %s (%d)", payload.SubmissionId, verdict.Verdict, verdict.Confidence)
	msg.Ack()
}
