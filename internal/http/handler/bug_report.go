package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"basegraph.app/intake/common/logger"
	"basegraph.app/intake/internal/http/dto"
	"basegraph.app/intake/internal/service"
	"github.com/gin-gonic/gin"
)

type BugReportHandler struct {
	conversations service.ConversationService
}

func NewBugReportHandler(conversations service.ConversationService) *BugReportHandler {
	return &BugReportHandler{conversations: conversations}
}

func (h *BugReportHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var body dto.BugReportChatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	req, err := body.ToTurnRequest()
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SessionID: &req.SessionID})
	slog.DebugContext(ctx, "bug report turn received",
		"messages", len(body.Messages),
		"has_logs", body.ConsoleLogs != "",
		"has_recording", body.ScreenRecording != "",
		"utterance", logger.Truncate(req.Utterance, 100))

	resp, err := h.conversations.Turn(ctx, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBugReportChatResponse(resp))
}

func (h *BugReportHandler) Reset(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, err := readResetSessionID(c)
	if err != nil {
		slog.WarnContext(ctx, "invalid reset body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	existed, err := h.conversations.Reset(ctx, sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !existed {
		c.JSON(http.StatusOK, dto.ResetSessionResponse{Success: false, Message: "Session not found"})
		return
	}
	c.JSON(http.StatusOK, dto.ResetSessionResponse{Success: true, Message: "Session reset successfully"})
}

// readResetSessionID accepts {"session_id": "..."} or a bare JSON string.
func readResetSessionID(c *gin.Context) (string, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return "", err
	}

	var body dto.ResetSessionRequest
	if err := json.Unmarshal(raw, &body); err == nil {
		return strings.TrimSpace(body.SessionID), nil
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

func (h *BugReportHandler) writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, service.ErrMissingSession),
		errors.Is(err, service.ErrEmptyUtterance),
		errors.Is(err, service.ErrNoUserMessage):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		slog.ErrorContext(ctx, "bug report request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}
