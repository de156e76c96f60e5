// Package proxy serves the OpenAI-compatible surface: chat completions and
// the model listing.
package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/gateway"
	"github.com/mandalnilabja/grokway/internal/storage/models"
	"github.com/mandalnilabja/grokway/internal/translate"
	"github.com/mandalnilabja/grokway/internal/types"
)

// Completer runs one chat completion.
type Completer interface {
	Complete(ctx context.Context, req *types.ChatCompletionRequest, sink translate.Sink) (*gateway.Result, error)
}

// RequestLogger persists request logs.
type RequestLogger interface {
	LogRequest(log *models.RequestLog) error
}

// Handlers holds the dependencies for proxy HTTP handlers.
type Handlers struct {
	Gateway Completer
	Catalog *catalog.Catalog
	Logs    RequestLogger
	Logger  *slog.Logger
}

// New creates a new instance of proxy handlers. logs may be nil.
func New(gw Completer, cat *catalog.Catalog, logs RequestLogger, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Gateway: gw,
		Catalog: cat,
		Logs:    logs,
		Logger:  logger,
	}
}

// writeGatewayError writes err as an OpenAI-compatible error response.
func writeGatewayError(w http.ResponseWriter, err error) int {
	status, apiErr := toAPIError(err)
	types.WriteError(w, status, apiErr)
	return status
}

func toAPIError(err error) (int, *types.APIError) {
	var ge *gateway.Error
	if !errors.As(err, &ge) {
		return http.StatusInternalServerError, types.ErrServer(err.Error())
	}
	status := ge.HTTPStatus()
	if ge.Kind == gateway.KindInvalidInput {
		return status, types.ErrInvalidRequest(ge.Message)
	}
	code := ge.Kind.String()
	if ge.Class != gateway.ClassNone {
		code = string(ge.Class)
	}
	return status, types.NewAPIErrorWithCode(ge.Error(), types.ErrorTypeServer, code)
}
