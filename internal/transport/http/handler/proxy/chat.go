package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/grokway/internal/gateway"
	"github.com/mandalnilabja/grokway/internal/storage/models"
	"github.com/mandalnilabja/grokway/internal/translate"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware"
	"github.com/mandalnilabja/grokway/internal/types"
)

// maxRequestBody bounds a chat request; inline images make them large.
const maxRequestBody = 64 << 20

// ChatCompletions handles POST /v1/chat/completions.
func (h *Handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.GetRequestID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var req types.ChatCompletionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("invalid request format"))
		return
	}
	if err := req.Validate(); err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest(err.Error()))
		return
	}

	var (
		sse  *sseSink
		sink translate.Sink
	)
	if req.Stream {
		sse = newSSESink(w, "chatcmpl-"+uuid.NewString(), req.Model)
		sink = sse
	}

	res, err := h.Gateway.Complete(r.Context(), &req, sink)

	status := http.StatusOK
	switch {
	case err == nil && !req.Stream:
		usage := res.Usage
		resp := types.NewChatResponse(res.ID, res.Model, res.Content, &usage)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = 499
		h.Logger.Info("client went away", "request_id", requestID)
	case sse != nil && sse.started:
		var apiErr *types.APIError
		status, apiErr = toAPIError(err)
		sse.fail(apiErr)
	default:
		status = writeGatewayError(w, err)
	}
	if err != nil && status != 499 {
		h.Logger.Warn("chat completion failed", "request_id", requestID, "model", req.Model, "status", status, "error", err)
	}

	go h.logRequest(requestID, &req, res, status, err, time.Since(start))
}

// logRequest persists one request log entry.
func (h *Handlers) logRequest(requestID string, req *types.ChatCompletionRequest, res *gateway.Result, status int, err error, elapsed time.Duration) {
	if h.Logs == nil {
		return
	}

	entry := &models.RequestLog{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		Model:       req.Model,
		IsStreaming: req.Stream,
		StatusCode:  status,
		DurationMs:  elapsed.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if res != nil {
		entry.Identity = res.Credential
		entry.Tier = string(res.Tier)
		entry.Attempts = res.Attempts
		entry.PromptTokens = res.Usage.PromptTokens
		entry.CompletionTokens = res.Usage.CompletionTokens
		entry.TotalTokens = res.Usage.TotalTokens
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}

	if lerr := h.Logs.LogRequest(entry); lerr != nil {
		h.Logger.Error("failed to log request", "request_id", requestID, "error", lerr)
	}
}
