package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/types"
)

// sseSink writes translated tokens as chat.completion.chunk events. Headers
// and the role chunk go out with the first write, so a request that fails
// before producing output can still get a JSON error.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      string
	model   string
	started bool
	closed  bool
}

func newSSESink(w http.ResponseWriter, id, model string) *sseSink {
	f, _ := w.(http.Flusher)
	return &sseSink{w: w, flusher: f, id: id, model: model}
}

func (s *sseSink) start() error {
	if s.started {
		return nil
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	return s.writeChunk(types.Delta{Role: types.RoleAssistant}, nil)
}

func (s *sseSink) WriteToken(token string) error {
	if err := s.start(); err != nil {
		return err
	}
	return s.writeChunk(types.Delta{Content: token}, nil)
}

// WriteError sends an error event inside the stream.
func (s *sseSink) WriteError(err error) error {
	if serr := s.start(); serr != nil {
		return serr
	}
	return s.writeEvent(types.ErrRateLimit(err.Error()))
}

func (s *sseSink) Close() error {
	if s.closed {
		return nil
	}
	if err := s.start(); err != nil {
		return err
	}
	s.closed = true
	stop := types.FinishReasonStop
	if err := s.writeChunk(types.Delta{}, &stop); err != nil {
		return err
	}
	return s.write([]byte(types.SSEDone))
}

// fail terminates a started stream with an error event.
func (s *sseSink) fail(apiErr *types.APIError) {
	if s.closed {
		return
	}
	_ = s.writeEvent(apiErr)
	s.closed = true
	_ = s.write([]byte(types.SSEDone))
}

func (s *sseSink) writeChunk(delta types.Delta, finish *string) error {
	return s.writeEvent(types.NewChunk(s.id, s.model, delta, finish))
}

func (s *sseSink) writeEvent(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(types.FormatSSE(data))
}

func (s *sseSink) write(b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
