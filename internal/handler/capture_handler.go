// FILE: internal/handler/capture_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"posemarket-be/internal/dto"
	"posemarket-be/internal/pkg/logger"
	"posemarket-be/internal/repository/memory"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/blobstore"
	"posemarket-be/pkg/capture"
	"posemarket-be/pkg/pose/detector"
	internalWS "posemarket-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CaptureHandler owns the capture websocket: camera frames in, pose
// previews out, one capture.Session per connection.
type CaptureHandler struct {
	sessions   *memory.CaptureSessionRepository
	loader     detector.Loader
	blobStore  blobstore.Store
	uowFactory unitofwork.RepositoryFactory
	hub        *internalWS.Hub
	logger     logger.ILogger
}

func NewCaptureHandler(
	sessions *memory.CaptureSessionRepository,
	loader detector.Loader,
	blobStore blobstore.Store,
	uowFactory unitofwork.RepositoryFactory,
	hub *internalWS.Hub,
	log logger.ILogger,
) *CaptureHandler {
	return &CaptureHandler{
		sessions:   sessions,
		loader:     loader,
		blobStore:  blobStore,
		uowFactory: uowFactory,
		hub:        hub,
		logger:     log,
	}
}

func (h *CaptureHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/capture/v1/ws", h.ServeWs)
}

// ServeWs authenticates the handshake (token query param, the browser
// WebSocket API cannot set headers) and upgrades.
func (h *CaptureHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("CaptureHandler", "Capture session socket opened", map[string]interface{}{"user_id": userID})
			h.run(conn, userID)
			h.logger.Info("CaptureHandler", "Capture session socket closed", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// connState is the per-connection mutable state guarded by wmu for the
// writer side (the session loop calls OnPreview concurrently with the
// read loop's replies).
type connState struct {
	wmu        sync.Mutex
	conn       *websocket.Conn
	session    *capture.Session
	sessionKey string
	taskId     uuid.UUID
	businessId uuid.UUID
	redacted   bool
}

func (cs *connState) send(msg dto.CaptureServerMessage) {
	cs.wmu.Lock()
	defer cs.wmu.Unlock()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	cs.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = cs.conn.WriteMessage(websocket.TextMessage, data)
}

func (cs *connState) sendError(err error) {
	cs.send(dto.CaptureServerMessage{Type: "error", Error: err.Error()})
}

func (h *CaptureHandler) run(conn *websocket.Conn, userID uuid.UUID) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs := &connState{conn: conn}
	defer func() {
		if cs.session != nil {
			cs.session.Close()
			h.sessions.Delete(cs.sessionKey)
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg dto.CaptureClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			cs.sendError(fmt.Errorf("malformed message: %v", err))
			continue
		}

		switch msg.Type {
		case "open":
			h.handleOpen(ctx, cs, userID, &msg)
		case "frame":
			h.handleFrame(cs, &msg)
		case "redact":
			if cs.session != nil {
				cs.session.SetRedaction(msg.Redact)
				cs.redacted = msg.Redact
			}
		case "start":
			h.handleStart(cs)
		case "stop":
			h.handleStop(ctx, cs, userID)
		case "close":
			return
		default:
			cs.sendError(fmt.Errorf("unknown message type %q", msg.Type))
		}
	}
}

func (h *CaptureHandler) handleOpen(ctx context.Context, cs *connState, userID uuid.UUID, msg *dto.CaptureClientMessage) {
	if cs.session != nil {
		cs.sendError(fmt.Errorf("session already open"))
		return
	}

	taskId, err := uuid.Parse(msg.TaskId)
	if err != nil {
		cs.sendError(fmt.Errorf("invalid task_id"))
		return
	}

	uow := h.uowFactory.NewUnitOfWork(ctx)
	task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
	if err != nil || task == nil {
		cs.sendError(apperrors.ErrNotFound)
		return
	}
	if !task.Active {
		cs.sendError(fmt.Errorf("task is closed for submissions"))
		return
	}

	session, err := capture.Open(ctx, capture.Options{
		Width:  msg.Width,
		Height: msg.Height,
		Loader: h.loader,
		Redact: msg.Redact,
		OnPreview: func(p capture.Preview) {
			server := dto.CaptureServerMessage{
				Type:        "pose",
				Keypoints:   p.Keypoints,
				TimestampMs: p.Timestamp.UnixMilli(),
				Redacted:    p.Redacted,
				Recording:   p.Recording,
			}
			cs.send(server)
			// Mirror the preview to the task owner's watch sockets.
			h.hub.Send(cs.businessId, "preview", server)
		},
	})
	if err != nil {
		cs.sendError(err)
		return
	}

	if err := session.EnsureDetector(ctx); err != nil {
		session.Close()
		cs.sendError(err)
		return
	}

	cs.session = session
	cs.sessionKey = userID.String() + ":" + uuid.New().String()
	cs.taskId = taskId
	cs.businessId = task.BusinessId
	cs.redacted = msg.Redact
	h.sessions.Save(cs.sessionKey, session)

	cs.send(dto.CaptureServerMessage{Type: "ready"})
}

func (h *CaptureHandler) handleFrame(cs *connState, msg *dto.CaptureClientMessage) {
	if cs.session == nil {
		return
	}
	cs.session.Feed(capture.RawFrame{
		Data:      msg.Frame,
		Timestamp: time.UnixMilli(msg.TimestampMs),
	})
	h.sessions.Touch(cs.sessionKey)
}

func (h *CaptureHandler) handleStart(cs *connState) {
	if cs.session == nil {
		cs.sendError(fmt.Errorf("no open session"))
		return
	}
	if err := cs.session.StartRecording(); err != nil {
		if errors.Is(err, apperrors.ErrNotReady) {
			cs.sendError(apperrors.ErrNotReady)
			return
		}
		cs.sendError(err)
		return
	}
	cs.send(dto.CaptureServerMessage{Type: "recording", Recording: true})
}

func (h *CaptureHandler) handleStop(ctx context.Context, cs *connState, userID uuid.UUID) {
	if cs.session == nil {
		cs.sendError(fmt.Errorf("no open session"))
		return
	}

	artifact, err := cs.session.StopRecording()
	if err != nil {
		cs.sendError(err)
		return
	}

	captureId := uuid.New()
	videoURL, err := h.blobStore.Put(ctx,
		fmt.Sprintf("captures/%s/%s/video.mjpeg", userID, captureId),
		artifact.Video, artifact.ContentType)
	if err != nil {
		cs.sendError(fmt.Errorf("failed to store video: %v", err))
		return
	}

	poseJSON, err := json.Marshal(artifact.Frames)
	if err != nil {
		cs.sendError(err)
		return
	}
	poseURL, err := h.blobStore.Put(ctx,
		fmt.Sprintf("captures/%s/%s/pose.json", userID, captureId),
		poseJSON, "application/json")
	if err != nil {
		cs.sendError(fmt.Errorf("failed to store pose data: %v", err))
		return
	}

	cs.send(dto.CaptureServerMessage{
		Type:      "artifact",
		Recording: false,
		Artifact: &dto.CaptureArtifact{
			VideoURL:    videoURL,
			PoseDataURL: poseURL,
			FrameCount:  len(artifact.Frames),
			DurationMs:  artifact.Duration.Milliseconds(),
			Redacted:    cs.redacted,
		},
	})
}
