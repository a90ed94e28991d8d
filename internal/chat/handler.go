package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chandler/pkg/ctxkeys"
	"chandler/pkg/logging"
)

const (
	maxMessageRunes = 10000

	// TurnTimeout bounds a whole chat turn from request to final answer.
	// The HTTP server's write deadline must outlive it: the answer is
	// streamed only once the pipeline finishes.
	TurnTimeout = 120 * time.Second
)

// Handler exposes the chat pipeline over HTTP with SSE responses.
type Handler struct {
	Registry *Registry
	Store    *Store
	Logger   logging.Logger
}

// NewHandler wires a handler. Store may be nil when no database is
// configured; transcripts are then memory-only.
func NewHandler(registry *Registry, store *Store, logger logging.Logger) *Handler {
	return &Handler{Registry: registry, Store: store, Logger: logger}
}

// RegisterRoutes mounts the chat endpoints on the given router group.
func RegisterRoutes(router gin.IRoutes, handler *Handler) {
	router.POST("/chat", handler.HandleChat)
	router.POST("/chat/reset", handler.HandleReset)
	router.POST("/chat/regenerate", handler.HandleRegenerate)
	router.GET("/conversations", handler.HandleListConversations)
	router.GET("/conversations/:id", handler.HandleGetConversation)
}

// ChatRequest is the body of chat and regenerate calls.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ResetRequest names the conversation to reset.
type ResetRequest struct {
	ConversationID string `json:"conversation_id"`
}

type sseToken struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type sseDone struct {
	Type string `json:"type"`
}

// HandleChat answers one user message, streaming the result as SSE.
func (h *Handler) HandleChat(c *gin.Context) {
	req, ok := h.bindChatRequest(c)
	if !ok {
		return
	}

	pipeline, conversationID := h.Registry.GetOrCreate(req.ConversationID)
	h.runTurn(c, conversationID, req.Message, func(ctx context.Context) (string, error) {
		return pipeline.ProcessQuery(ctx, req.Message)
	})
}

// HandleRegenerate rewinds to the given query and answers it again.
func (h *Handler) HandleRegenerate(c *gin.Context) {
	req, ok := h.bindChatRequest(c)
	if !ok {
		return
	}
	if req.ConversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id is required"})
		return
	}

	pipeline, found := h.Registry.Get(req.ConversationID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	h.runTurn(c, req.ConversationID, req.Message, func(ctx context.Context) (string, error) {
		return pipeline.Regenerate(ctx, req.Message)
	})
}

// HandleReset clears a conversation back to the introduction message.
func (h *Handler) HandleReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	pipeline, conversationID := h.Registry.GetOrCreate(strings.TrimSpace(req.ConversationID))
	unlock := h.Registry.Lock(conversationID)
	defer unlock()

	intro := pipeline.Reset()
	h.mirrorHistory(c.Request.Context(), conversationID, pipeline.History())

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"message":         intro,
	})
}

// HandleListConversations lists stored conversations.
func (h *Handler) HandleListConversations(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusOK, []ConversationSummary{})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	summaries, err := h.Store.ListConversations(c.Request.Context(), limit)
	if err != nil {
		h.Logger.WithError(err).Warn("Failed to list conversations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	if summaries == nil {
		summaries = []ConversationSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// HandleGetConversation returns a stored transcript.
func (h *Handler) HandleGetConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if conversationID == "" || h.Store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	messages, err := h.Store.GetMessages(c.Request.Context(), conversationID)
	if err != nil {
		h.Logger.WithError(err).Warn("Failed to load conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if len(messages) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}

func (h *Handler) bindChatRequest(c *gin.Context) (ChatRequest, bool) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return ChatRequest{}, false
	}
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return ChatRequest{}, false
	}
	if len([]rune(req.Message)) > maxMessageRunes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
		return ChatRequest{}, false
	}
	return req, true
}

// runTurn executes one turn under the per-conversation lock and the turn
// deadline, then streams the outcome.
func (h *Handler) runTurn(c *gin.Context, conversationID, message string, run func(context.Context) (string, error)) {
	started := time.Now()

	unlock := h.Registry.Lock(conversationID)
	defer unlock()

	streamer, err := newSSEStreamer(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unavailable"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("X-Conversation-ID", conversationID)
	c.Status(http.StatusOK)

	ctx, cancel := context.WithTimeout(c.Request.Context(), TurnTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, ctxkeys.KeyConversationID, conversationID)

	answer, err := run(ctx)
	outcome := "answered"
	if err != nil {
		answer, outcome = h.presentError(ctx, err)
	} else if answer == ScopeRejectionMessage {
		outcome = "rejected"
	}
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDuration.Observe(time.Since(started).Seconds())

	_ = streamer.SendToken(answer)
	_ = streamer.SendDone()

	if outcome != "error" && outcome != "timeout" {
		pipeline, found := h.Registry.Get(conversationID)
		if found {
			h.mirrorHistory(context.WithoutCancel(c.Request.Context()), conversationID, pipeline.History())
		}
	}
}

// presentError maps a pipeline failure to the fixed text shown to the user.
// A turn that ran out its whole budget gets the timeout text; everything
// else gets the apology with a short description.
func (h *Handler) presentError(ctx context.Context, err error) (string, string) {
	entry := h.Logger.WithError(err).WithFields(logging.Fields{
		"request_id":      ctxkeys.GetRequestID(ctx),
		"conversation_id": ctxkeys.GetConversationID(ctx),
	})
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		entry.Warn("Chat turn timed out")
		return TurnTimeoutMessage, "timeout"
	}
	entry.Error("Chat turn failed")
	return fmt.Sprintf("I apologize, but I encountered an error: %v", err), "error"
}

// mirrorHistory persists the transcript, logging failures instead of
// surfacing them.
func (h *Handler) mirrorHistory(ctx context.Context, conversationID string, history *History) {
	if h.Store == nil {
		return
	}
	messages := history.Messages()
	title := conversationTitle(messages)
	if err := h.Store.SaveHistory(ctx, conversationID, title, messages); err != nil {
		h.Logger.WithError(err).WithField("conversation_id", conversationID).Warn("Failed to persist conversation")
	}
}

// conversationTitle derives a listing title from the first real user message.
func conversationTitle(messages []Message) string {
	for _, msg := range messages {
		if msg.Role == RoleUser && !strings.HasPrefix(msg.Content, contextPrefix) {
			return truncateTitle(msg.Content, 60)
		}
	}
	return ""
}

func truncateTitle(message string, maxLen int) string {
	message = strings.TrimSpace(message)
	runes := []rune(message)
	if len(runes) <= maxLen {
		return message
	}
	truncated := string(runes[:maxLen])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}

type sseStreamer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

func newSSEStreamer(writer http.ResponseWriter) (*sseStreamer, error) {
	flusher, ok := writer.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	return &sseStreamer{writer: writer, flusher: flusher}, nil
}

func (s *sseStreamer) SendToken(token string) error {
	return s.send(sseToken{Type: "token", Content: token})
}

func (s *sseStreamer) SendDone() error {
	if err := s.send(sseDone{Type: "done"}); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseStreamer) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
