// Package translate turns the upstream newline-delimited JSON event stream
// into client-facing text.
package translate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mandalnilabja/grokway/internal/catalog"
)

// ErrUpstreamRateLimited is reported when the upstream sends an error event.
var ErrUpstreamRateLimited = errors.New("upstream rate limit error")

// InterruptedToken is emitted when the upstream stream breaks mid-response.
const InterruptedToken = "\n[connection interrupted]"

// MaxLineSize bounds one upstream event line.
const MaxLineSize = 4 << 20

// Sink receives streamed output.
type Sink interface {
	// WriteToken emits one ordered chunk of text.
	WriteToken(token string) error
	// WriteError reports a terminal upstream error to the client.
	WriteError(err error) error
	// Close writes the stream terminator.
	Close() error
}

// Options controls what the translator surfaces.
type Options struct {
	ShowThinking      bool
	ShowSearchResults bool

	// Images renders generated images; image events are dropped when nil.
	Images *ImageRenderer

	// Cookie authenticates generated asset downloads.
	Cookie string

	Logger *slog.Logger
}

// Translator holds the state of one response. Build a new one per response.
type Translator struct {
	model  catalog.Model
	opts   Options
	logger *slog.Logger

	thinking  bool
	imageMode bool
	imageDone bool
}

// New creates a Translator for model.
func New(model catalog.Model, opts Options) *Translator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		model:  model,
		opts:   opts,
		logger: logger.With("component", "translate", "model", model.ID),
	}
}

// ReadError wraps a failure reading the upstream stream.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "read upstream stream: " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

// sinkError wraps a failure writing to the client.
type sinkError struct {
	err error
}

func (e *sinkError) Error() string { return e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

// Stream emits tokens to sink as they arrive and always terminates the
// client stream. It returns an error only when the sink fails or ctx ends.
func (t *Translator) Stream(ctx context.Context, r io.Reader, sink Sink) error {
	err := t.run(ctx, r, sink.WriteToken)

	var se *sinkError
	switch {
	case err == nil:
		return sink.Close()
	case errors.As(err, &se):
		return se.err
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, ErrUpstreamRateLimited):
		if werr := sink.WriteError(err); werr != nil {
			return werr
		}
		return sink.Close()
	default:
		t.logger.Warn("upstream stream interrupted", "error", err)
		if werr := sink.WriteToken(InterruptedToken); werr != nil {
			return werr
		}
		return sink.Close()
	}
}

// Collect aggregates the whole response. An error event yields
// ErrUpstreamRateLimited and a broken stream a *ReadError.
func (t *Translator) Collect(ctx context.Context, r io.Reader) (string, error) {
	var sb strings.Builder
	err := t.run(ctx, r, func(token string) error {
		sb.WriteString(token)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// run reads events and passes each non-empty output to emit.
func (t *Translator) run(ctx context.Context, r io.Reader, emit func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		out, stop, err := t.handleLine(ctx, line)
		if err != nil {
			return err
		}
		if out != "" {
			if err := emit(out); err != nil {
				return &sinkError{err: err}
			}
		}
		if stop {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ReadError{Err: err}
	}
	return nil
}

// handleLine processes one event line. stop ends the response early once a
// generated image has been emitted.
func (t *Translator) handleLine(ctx context.Context, line string) (out string, stop bool, err error) {
	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		t.logger.Debug("skipping malformed event", "error", err)
		return "", false, nil
	}
	if truthy(env.Error) {
		t.logger.Error("upstream error event", "error", string(env.Error))
		return "", false, ErrUpstreamRateLimited
	}
	if env.Result == nil || !truthy(env.Result.Response) {
		return "", false, nil
	}

	var ev responseEvent
	if err := json.Unmarshal(env.Result.Response, &ev); err != nil {
		t.logger.Debug("skipping malformed response", "error", err)
		return "", false, nil
	}

	if truthy(ev.DoImgGen) || truthy(ev.ImageAttachmentInfo) {
		t.imageMode = true
	}
	if t.imageMode {
		return t.handleImage(ctx, &ev)
	}
	return t.extract(&ev), false, nil
}

func (t *Translator) handleImage(ctx context.Context, ev *responseEvent) (string, bool, error) {
	if t.imageDone || !truthy(ev.CachedImageGenerationResponse) {
		return "", false, nil
	}
	var cached cachedImage
	if err := json.Unmarshal(ev.CachedImageGenerationResponse, &cached); err != nil || cached.ImageURL == "" {
		return "", false, nil
	}
	t.imageDone = true

	if t.opts.Images == nil {
		t.logger.Error("image generated without a renderer", "error", ErrNoImageRenderer)
		return "", true, nil
	}
	out, err := t.opts.Images.Render(ctx, t.opts.Cookie, cached.ImageURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", true, ctx.Err()
		}
		t.logger.Error("image render failed", "error", fmt.Errorf("render %s: %w", cached.ImageURL, err))
		return "", true, nil
	}
	return out, true, nil
}
