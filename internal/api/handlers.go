package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/holoreel/video-sync/internal/db"
	"github.com/holoreel/video-sync/internal/event"
	"github.com/holoreel/video-sync/internal/httpapi"
	"github.com/holoreel/video-sync/internal/ids"
	"github.com/holoreel/video-sync/internal/log"
	"github.com/holoreel/video-sync/internal/mapper"
	"github.com/holoreel/video-sync/internal/signature"
	"github.com/holoreel/video-sync/internal/sweep"
)

// HeaderSignature carries the webhook HMAC signature.
const HeaderSignature = "x-signature"

// webhookSource identifies this ingestion path in audit log entries.
const webhookSource = "stream_webhook"

var validProcessingStatuses = map[db.ProcessingStatus]bool{
	db.StatusQueued:     true,
	db.StatusUploading:  true,
	db.StatusProcessing: true,
	db.StatusReady:      true,
	db.StatusError:      true,
	db.StatusDeleted:    true,
}

// VideoStore is the video repository surface consumed by the handlers.
type VideoStore interface {
	Create(ctx context.Context, params db.CreateVideoParams) (*db.VideoRecord, error)
	GetByID(ctx context.Context, id string) (*db.VideoRecord, error)
	GetByRemoteID(ctx context.Context, remoteAssetID string) (*db.VideoRecord, error)
	List(ctx context.Context, params db.ListParams) ([]*db.VideoRecord, int, error)
	MarkRetry(ctx context.Context, id string) (*db.VideoRecord, error)
}

// AuditLog appends webhook audit entries.
type AuditLog interface {
	Create(ctx context.Context, entry *db.WebhookLogEntry) error
	ListByRemoteAssetID(ctx context.Context, remoteAssetID string, params db.ListLogsParams) ([]*db.WebhookLogEntry, int, error)
}

// Applier applies a mapped transition with retries.
type Applier interface {
	Apply(ctx context.Context, video *db.VideoRecord, tr db.Transition) (*db.VideoRecord, error)
}

// SweepRunner triggers reconciliation sweeps.
type SweepRunner interface {
	Run(ctx context.Context) (*sweep.Summary, error)
	SweepOne(ctx context.Context, videoID string) (*sweep.Detail, error)
}

// RetryTrigger asks the remote platform to re-process an asset.
type RetryTrigger interface {
	RetryProcessing(ctx context.Context, remoteAssetID string) error
}

// Handler holds dependencies for API handlers.
type Handler struct {
	videos   VideoStore
	logs     AuditLog
	applier  Applier
	sweeper  SweepRunner
	remote   RetryTrigger
	verifier *signature.Verifier
}

// NewHandler creates a new API handler.
func NewHandler(videos VideoStore, logs AuditLog, applier Applier, sweeper SweepRunner, remote RetryTrigger, verifier *signature.Verifier) *Handler {
	return &Handler{
		videos:   videos,
		logs:     logs,
		applier:  applier,
		sweeper:  sweeper,
		remote:   remote,
		verifier: verifier,
	}
}

// WebhookResponse is the success response for an ingested event.
type WebhookResponse struct {
	Success   bool   `json:"success"`
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	VideoUID  string `json:"videoUid"`
}

// HandleWebhook handles POST /webhooks/stream. Request state machine:
// received -> verified -> mapped -> applied -> logged. Any terminal failure
// before the apply step leaves every VideoRecord untouched.
func (h *Handler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.audit(ctx, nil, body, false, "read body: "+err.Error())
		httpapi.RespondBadRequest(c, "Failed to read request body")
		return
	}

	if len(body) == 0 {
		// Policy: even unparsable traffic leaves an audit trail.
		h.audit(ctx, nil, body, false, "empty request body")
		httpapi.RespondBadRequest(c, "Request body is empty")
		return
	}

	ev, err := event.Parse(body)
	if err != nil {
		h.audit(ctx, ev, body, false, "parse event: "+err.Error())
		httpapi.RespondValidationError(c, "Invalid event payload: "+err.Error())
		return
	}

	sigResult, err := h.verifier.Verify(body, c.GetHeader(HeaderSignature))
	if err != nil {
		h.audit(ctx, ev, body, false, "signature verification failed: "+err.Error())
		httpapi.RespondError(c, http.StatusUnauthorized, httpapi.ErrCodeInvalidSignature,
			"Webhook signature verification failed")
		return
	}
	if sigResult.Skipped {
		if sigResult.SignaturePresent {
			log.Warn("signed webhook accepted without verification: no secret configured",
				zap.String("event_id", ev.EventID),
				zap.String("remote_asset_id", ev.RemoteAssetID),
			)
		} else {
			log.Debug("webhook signature verification skipped: no secret configured")
		}
	}

	video, err := h.videos.GetByRemoteID(ctx, ev.RemoteAssetID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrVideoNotFound):
			// Definite failure: the store has never heard of this asset, so
			// retrying the lookup cannot help.
			h.audit(ctx, ev, body, false, "no video record for remote asset id")
			httpapi.RespondError(c, http.StatusNotFound, httpapi.ErrCodeUnknownAsset,
				"No video record matches the remote asset id")
		case errors.Is(err, db.ErrAmbiguousRemoteID):
			h.audit(ctx, ev, body, false, "remote asset id matches multiple video records")
			httpapi.RespondConflict(c, httpapi.ErrCodeAmbiguousAsset,
				"Remote asset id matches more than one video record")
		default:
			log.Error("failed to look up video by remote asset id",
				zap.String("remote_asset_id", ev.RemoteAssetID),
				zap.Error(err),
			)
			h.audit(ctx, ev, body, false, "lookup failed: "+err.Error())
			httpapi.RespondInternalError(c, "Failed to look up video record")
		}
		return
	}

	tr := mapper.MapEvent(ev)
	if !tr.Recognized {
		log.Warn("unrecognized event type mapped to safe default",
			zap.String("event_id", ev.EventID),
			zap.String("event_type", string(ev.EventType)),
			zap.String("remote_asset_id", ev.RemoteAssetID),
		)
	}

	if _, err := h.applier.Apply(ctx, video, tr); err != nil {
		h.audit(ctx, ev, body, false, "apply transition: "+err.Error())
		httpapi.RespondInternalError(c, "Failed to apply status transition")
		return
	}

	h.audit(ctx, ev, body, true, "")

	httpapi.RespondOK(c, WebhookResponse{
		Success:   true,
		EventID:   ev.EventID,
		EventType: string(ev.EventType),
		VideoUID:  video.ID,
	})
}

// WebhookInfo handles GET on the webhook route with a descriptor so probes
// and misconfigured senders get a useful answer.
func (h *Handler) WebhookInfo(c *gin.Context) {
	httpapi.RespondOK(c, gin.H{
		"endpoint":  "stream webhook receiver",
		"method":    "POST",
		"signature": HeaderSignature + ": " + signature.Prefix + "<hex-hmac>",
	})
}

// WebhookMethodNotAllowed rejects unsupported methods on the webhook route.
func (h *Handler) WebhookMethodNotAllowed(c *gin.Context) {
	httpapi.RespondError(c, http.StatusMethodNotAllowed, httpapi.ErrCodeMethodNotAllowed,
		"Only POST is accepted on this route")
}

// audit appends an audit log entry for an inbound event. Audit failures are
// logged but never surfaced: the audit trail must not gate event processing.
func (h *Handler) audit(ctx context.Context, ev *event.RemoteEvent, body []byte, success bool, errMsg string) {
	entry := &db.WebhookLogEntry{
		Source:  webhookSource,
		Success: success,
	}
	if len(body) > 0 && json.Valid(body) {
		entry.Payload = json.RawMessage(body)
	}
	if ev != nil {
		if ev.EventID != "" {
			entry.EventID = &ev.EventID
		}
		if ev.EventType != "" {
			et := string(ev.EventType)
			entry.EventType = &et
		}
		if ev.RemoteAssetID != "" {
			entry.RemoteAssetID = &ev.RemoteAssetID
		}
	}
	if errMsg != "" {
		entry.ErrorMessage = &errMsg
	}

	if err := h.logs.Create(ctx, entry); err != nil {
		log.Error("failed to write webhook audit log", zap.Error(err))
	}
}

// ReconcileAll handles POST /api/v1/reconcile — a full sweep of the
// in-flight set.
func (h *Handler) ReconcileAll(c *gin.Context) {
	summary, err := h.sweeper.Run(c.Request.Context())
	if err != nil {
		log.Error("reconciliation sweep failed", zap.Error(err))
		httpapi.RespondInternalError(c, "Reconciliation sweep failed")
		return
	}

	httpapi.RespondOK(c, summary)
}

// ReconcileVideoRequest is the request body for a single-record sweep.
type ReconcileVideoRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

// ReconcileVideo handles POST /api/v1/reconcile/video.
func (h *Handler) ReconcileVideo(c *gin.Context) {
	var req ReconcileVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondValidationError(c, "Invalid request body: "+err.Error())
		return
	}
	if !ids.IsValidVideoID(req.VideoID) {
		httpapi.RespondNotFound(c, "Video not found")
		return
	}

	detail, err := h.sweeper.SweepOne(c.Request.Context(), req.VideoID)
	if err != nil {
		if errors.Is(err, db.ErrVideoNotFound) {
			httpapi.RespondNotFound(c, "Video not found")
			return
		}
		log.Error("single-record reconciliation failed",
			zap.String("video_id", req.VideoID),
			zap.Error(err),
		)
		httpapi.RespondInternalError(c, "Reconciliation failed")
		return
	}

	httpapi.RespondOK(c, detail)
}

// RetryVideoResponse is returned when re-processing has been requested.
type RetryVideoResponse struct {
	VideoID    string `json:"video_id"`
	Status     string `json:"status"`
	RetryCount int    `json:"retry_count"`
}

// RetryVideo handles POST /api/v1/videos/:video_id/retry — asks the remote
// platform to re-run processing and flips the record back to processing.
func (h *Handler) RetryVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	if !ids.IsValidVideoID(videoID) {
		httpapi.RespondNotFound(c, "Video not found")
		return
	}

	video, err := h.videos.GetByID(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, db.ErrVideoNotFound) {
			httpapi.RespondNotFound(c, "Video not found")
			return
		}
		log.Error("failed to get video", zap.Error(err))
		httpapi.RespondInternalError(c, "Failed to get video")
		return
	}

	if video.RemoteAssetID == nil || *video.RemoteAssetID == "" {
		httpapi.RespondValidationError(c, "Video has no remote asset; nothing to retry")
		return
	}

	if err := h.remote.RetryProcessing(c.Request.Context(), *video.RemoteAssetID); err != nil {
		log.Error("remote retry request failed",
			zap.String("video_id", videoID),
			zap.String("remote_asset_id", *video.RemoteAssetID),
			zap.Error(err),
		)
		httpapi.RespondError(c, http.StatusBadGateway, httpapi.ErrCodeUpstream,
			"Remote platform rejected the retry request")
		return
	}

	updated, err := h.videos.MarkRetry(c.Request.Context(), videoID)
	if err != nil {
		log.Error("failed to record retry", zap.String("video_id", videoID), zap.Error(err))
		httpapi.RespondInternalError(c, "Retry was requested but could not be recorded")
		return
	}

	log.Info("re-processing requested",
		zap.String("video_id", videoID),
		zap.Int("retry_count", updated.RetryCount),
	)

	httpapi.RespondAccepted(c, RetryVideoResponse{
		VideoID:    updated.ID,
		Status:     string(updated.ProcessingStatus),
		RetryCount: updated.RetryCount,
	})
}

// CreateVideoRequest is the request body for registering a video record.
type CreateVideoRequest struct {
	Title         string  `json:"title" binding:"required"`
	RemoteAssetID *string `json:"remote_asset_id"`
}

// CreateVideo handles POST /api/v1/videos — registers the local row of truth
// for a video. The remote asset id may arrive later, once the upload to the
// platform has happened.
func (h *Handler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondValidationError(c, "Invalid request body: "+err.Error())
		return
	}
	if req.RemoteAssetID != nil && *req.RemoteAssetID == "" {
		req.RemoteAssetID = nil
	}

	video, err := h.videos.Create(c.Request.Context(), db.CreateVideoParams{
		ID:            ids.NewVideoID(),
		Title:         req.Title,
		RemoteAssetID: req.RemoteAssetID,
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicateRemoteID) {
			httpapi.RespondConflict(c, httpapi.ErrCodeDuplicateAsset,
				"A video record already exists for this remote asset id")
			return
		}
		log.Error("failed to create video", zap.Error(err))
		httpapi.RespondInternalError(c, "Failed to create video")
		return
	}

	log.Info("video record created",
		zap.String("video_id", video.ID),
		zap.String("title", video.Title),
	)

	httpapi.RespondCreated(c, video)
}

// GetVideo handles GET /api/v1/videos/:video_id.
func (h *Handler) GetVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	if !ids.IsValidVideoID(videoID) {
		httpapi.RespondNotFound(c, "Video not found")
		return
	}

	video, err := h.videos.GetByID(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, db.ErrVideoNotFound) {
			httpapi.RespondNotFound(c, "Video not found")
			return
		}
		log.Error("failed to get video", zap.Error(err))
		httpapi.RespondInternalError(c, "Failed to get video")
		return
	}

	httpapi.RespondOK(c, video)
}

// ListVideosResponse represents the response for listing videos.
type ListVideosResponse struct {
	Videos     []*db.VideoRecord `json:"videos"`
	Pagination PaginationInfo    `json:"pagination"`
}

// PaginationInfo represents pagination information.
type PaginationInfo struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListVideos handles GET /api/v1/videos.
func (h *Handler) ListVideos(c *gin.Context) {
	var params db.ListParams

	if status := c.Query("status"); status != "" {
		s := db.ProcessingStatus(status)
		if !validProcessingStatuses[s] {
			httpapi.RespondValidationError(c, "Invalid status value")
			return
		}
		params.Status = &s
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			params.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			params.Offset = offset
		}
	}

	videos, total, err := h.videos.List(c.Request.Context(), params)
	if err != nil {
		log.Error("failed to list videos", zap.Error(err))
		httpapi.RespondInternalError(c, "Failed to list videos")
		return
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	if videos == nil {
		videos = []*db.VideoRecord{}
	}

	httpapi.RespondOK(c, ListVideosResponse{
		Videos: videos,
		Pagination: PaginationInfo{
			Total:  total,
			Limit:  limit,
			Offset: params.Offset,
		},
	})
}

// ListVideoLogsResponse represents the audit trail for one video.
type ListVideoLogsResponse struct {
	VideoID    string                `json:"video_id"`
	Logs       []*db.WebhookLogEntry `json:"logs"`
	Pagination PaginationInfo        `json:"pagination"`
}

// ListVideoLogs handles GET /api/v1/videos/:video_id/logs.
func (h *Handler) ListVideoLogs(c *gin.Context) {
	videoID := c.Param("video_id")
	if !ids.IsValidVideoID(videoID) {
		httpapi.RespondNotFound(c, "Video not found")
		return
	}

	video, err := h.videos.GetByID(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, db.ErrVideoNotFound) {
			httpapi.RespondNotFound(c, "Video not found")
			return
		}
		log.Error("failed to get video", zap.Error(err))
		httpapi.RespondInternalError(c, "Failed to get video")
		return
	}

	resp := ListVideoLogsResponse{
		VideoID: videoID,
		Logs:    []*db.WebhookLogEntry{},
	}

	if video.RemoteAssetID == nil {
		// Never uploaded; no events could have been logged against it.
		httpapi.RespondOK(c, resp)
		return
	}

	var params db.ListLogsParams
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			params.Limit = limit
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			params.Offset = offset
		}
	}

	entries, total, err := h.logs.ListByRemoteAssetID(c.Request.Context(), *video.RemoteAssetID, params)
	if err != nil {
		log.Error("failed to list webhook logs", zap.Error(err))
		httpapi.RespondInternalError(c, "Failed to list webhook logs")
		return
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	if entries != nil {
		resp.Logs = entries
	}
	resp.Pagination = PaginationInfo{Total: total, Limit: limit, Offset: params.Offset}

	httpapi.RespondOK(c, resp)
}
