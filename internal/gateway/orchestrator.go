// Package gateway runs one chat completion against the credential pool:
// tier selection, dispatch, outcome classification and the retry loop.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/metrics"
	"github.com/mandalnilabja/grokway/internal/pool"
	"github.com/mandalnilabja/grokway/internal/prepare"
	"github.com/mandalnilabja/grokway/internal/provider"
	"github.com/mandalnilabja/grokway/internal/tokenizer"
	"github.com/mandalnilabja/grokway/internal/translate"
	"github.com/mandalnilabja/grokway/internal/types"
)

const (
	DefaultMaxAttempts = 3
	DefaultPacing      = time.Second

	maxFailurePreview = 512
)

// CredentialPool is the part of pool.Pool the orchestrator drives.
type CredentialPool interface {
	catalog.Availability
	Next(tier catalog.Tier, peek bool) (string, bool)
	Charge(tier catalog.Tier, credential string) bool
	Compensate(tier catalog.Tier, n int)
	Retire(tier catalog.Tier, credential string) bool
}

// Preparer builds the upstream payload from client messages.
type Preparer interface {
	Prepare(ctx context.Context, model catalog.Model, messages []types.Message, stream bool, cookie string) (*prepare.Payload, error)
}

// Dispatcher sends conversations and signs them.
type Dispatcher interface {
	provider.Transport
	provider.Signer
}

// Options configures an Orchestrator. Zero values take the defaults.
type Options struct {
	Catalog   *catalog.Catalog
	Fallbacks []catalog.FallbackRule

	MaxAttempts int
	// Pacing is the pause before each dispatch. Negative disables it.
	Pacing       time.Duration
	NetworkRules []NetworkRule

	ShowThinking      bool
	ShowSearchResults bool
	Images            *translate.ImageRenderer

	Clearance *provider.Clearance
	Tokenizer tokenizer.Tokenizer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Orchestrator serves chat completions. It is safe for concurrent use.
type Orchestrator struct {
	pool     CredentialPool
	upstream Dispatcher
	preparer Preparer
	opts     Options
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(p CredentialPool, upstream Dispatcher, preparer Preparer, opts Options) *Orchestrator {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Fallbacks == nil {
		opts.Fallbacks = catalog.DefaultFallbacks()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Pacing == 0 {
		opts.Pacing = DefaultPacing
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		pool:     p,
		upstream: upstream,
		preparer: preparer,
		opts:     opts,
		logger:   opts.Logger.With("component", "gateway"),
	}
}

// Result describes a served completion.
type Result struct {
	ID         string
	Model      string
	Tier       catalog.Tier
	Credential string // masked
	Attempts   int
	Streamed   bool

	// Content is the aggregated reply. For streamed requests it holds what
	// was written to the sink.
	Content string
	Usage   types.Usage
}

// Complete serves req. Streaming requests write to sink, which is always
// terminated on success; non-streaming requests return the text in Result.
func (o *Orchestrator) Complete(ctx context.Context, req *types.ChatCompletionRequest, sink translate.Sink) (*Result, error) {
	model, err := o.opts.Catalog.Lookup(req.Model)
	if err != nil {
		return nil, newError(KindInvalidInput, fmt.Sprintf("model %q is not supported", req.Model), err)
	}
	if req.Stream && sink == nil {
		return nil, newError(KindInvalidInput, "streaming requires a sink", nil)
	}

	tier, decision := catalog.ResolveTier(o.opts.Fallbacks, model, o.pool)
	switch decision {
	case catalog.Reject:
		o.opts.Metrics.RecordDispatch(string(tier), "rejected", 0)
		return nil, newError(KindAdmissionRejected, "no credential available for "+model.ID, nil)
	case catalog.UseFallback:
		o.logger.Info("restricted tier empty, using fallback tier", "model", model.ID, "tier", tier)
	}

	// Uploads made while preparing need a session; the head is not charged.
	cred, ok := o.pool.Next(tier, true)
	if !ok {
		o.opts.Metrics.RecordDispatch(string(tier), "rejected", 0)
		return nil, newError(KindAdmissionRejected, "no capacity for "+model.ID, nil)
	}
	payload, err := o.preparer.Prepare(ctx, model, req.Messages, req.Stream, o.opts.Clearance.Cookie(cred))
	switch {
	case err == nil:
	case prepare.IsInvalidInput(err):
		return nil, newError(KindInvalidInput, err.Error(), err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, newError(KindUnavailable, "failed to prepare request", err)
	}
	body, err := payload.Encode()
	if err != nil {
		return nil, newError(KindUnavailable, "failed to encode request", err)
	}

	c := &call{
		o:      o,
		req:    req,
		model:  model,
		tier:   tier,
		body:   body,
		sink:   sink,
		logger: o.logger.With("model", model.ID, "tier", tier),
	}
	return c.run(ctx)
}

// call is the state of one Complete invocation.
type call struct {
	o      *Orchestrator
	req    *types.ChatCompletionRequest
	model  catalog.Model
	tier   catalog.Tier
	body   []byte
	sink   translate.Sink
	logger *slog.Logger

	lastClass  Class
	lastStatus int
	lastErr    error
}

type action int

const (
	actionDone action = iota
	actionPeekRetry
	actionRetire
	actionRateLimited
	actionBlocked
)

// attempt is the outcome of one dispatch.
type attempt struct {
	action  action
	content string
	status  int
	err     error
}

func (c *call) run(ctx context.Context) (*Result, error) {
	o := c.o
	peek := false

	for n := 1; n <= o.opts.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cred, ok := o.pool.Next(c.tier, peek)
		if !ok {
			o.opts.Metrics.RecordDispatch(string(c.tier), "rejected", 0)
			return nil, &Error{Kind: KindAdmissionRejected, Message: "no capacity for " + c.model.ID, Class: c.lastClass, Err: c.lastErr}
		}
		charged := !peek
		peek = false

		masked := pool.MaskCredential(cred)
		start := time.Now()
		res := c.dispatch(ctx, cred)
		elapsed := time.Since(start)

		if err := ctx.Err(); err != nil && res.action != actionDone {
			return nil, err
		}

		c.logger.Info("dispatch attempt",
			"attempt", n,
			"credential", masked,
			"remaining", o.pool.RemainingCapacity(c.tier),
			"outcome", res.label(),
			"status", res.status,
		)

		switch res.action {
		case actionDone:
			o.opts.Metrics.RecordDispatch(string(c.tier), "success", elapsed)
			if res.err != nil {
				return nil, res.err
			}
			if !charged && !o.pool.Charge(c.tier, cred) {
				c.logger.Debug("peeked success not charged", "credential", masked)
			}
			return c.result(cred, n, res.content), nil

		case actionPeekRetry:
			o.opts.Metrics.RecordDispatch(string(c.tier), "network", elapsed)
			c.fail(ClassNetwork, res)
			if charged {
				o.pool.Compensate(c.tier, 1)
			}
			peek = true

		case actionBlocked:
			o.opts.Metrics.RecordDispatch(string(c.tier), "blocked", elapsed)
			if charged {
				o.pool.Compensate(c.tier, 1)
			}
			return nil, &Error{
				Kind:    KindUpstreamBlocked,
				Status:  res.status,
				Message: "upstream blocked the request",
				Class:   ClassBlocked,
				Err:     res.err,
			}

		case actionRateLimited:
			o.opts.Metrics.RecordDispatch(string(c.tier), "rate_limited", elapsed)
			c.fail(ClassExhausted, res)
			if charged {
				o.pool.Compensate(c.tier, 1)
			}
			if err := c.retire(cred); err != nil {
				return nil, err
			}

		case actionRetire:
			o.opts.Metrics.RecordDispatch(string(c.tier), "error", elapsed)
			c.fail(ClassGeneric, res)
			if err := c.retire(cred); err != nil {
				return nil, err
			}
		}
	}

	return nil, &Error{
		Kind:    KindUnavailable,
		Status:  c.lastStatus,
		Message: "temporarily unavailable",
		Class:   c.lastClass,
		Err:     c.lastErr,
	}
}

func (c *call) fail(class Class, res attempt) {
	c.lastClass = class
	c.lastStatus = res.status
	c.lastErr = res.err
}

// retire drops cred from the tier and reports exhaustion once the tier is
// empty.
func (c *call) retire(cred string) error {
	c.o.pool.Retire(c.tier, cred)
	if c.o.pool.Count(c.tier) > 0 {
		return nil
	}
	c.logger.Warn("tier exhausted")
	return &Error{
		Kind:    KindExhausted,
		Status:  c.lastStatus,
		Message: "quota exhausted for " + c.model.ID,
		Class:   ClassExhausted,
		Err:     c.lastErr,
	}
}

// dispatch sends the payload with cred and classifies what came back.
func (c *call) dispatch(ctx context.Context, cred string) attempt {
	o := c.o

	signature, err := o.upstream.Signature(ctx)
	if err != nil {
		c.logger.Warn("signature unavailable, sending without it", "error", err)
		o.opts.Metrics.RecordSignatureFailure()
	}

	if err := pause(ctx, o.opts.Pacing); err != nil {
		return attempt{action: actionPeekRetry, err: err}
	}

	cookie := o.opts.Clearance.Cookie(cred)
	resp, err := o.upstream.Conversation(ctx, &provider.ConversationRequest{
		Cookie:    cookie,
		RequestID: uuid.NewString(),
		Signature: signature,
		Body:      c.body,
	})
	if err != nil {
		return c.classify(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return attempt{action: actionBlocked, status: resp.StatusCode, err: statusErr(resp)}
	case http.StatusTooManyRequests:
		return attempt{action: actionRateLimited, status: resp.StatusCode, err: statusErr(resp)}
	default:
		return attempt{action: actionRetire, status: resp.StatusCode, err: statusErr(resp)}
	}

	tr := translate.New(c.model, translate.Options{
		ShowThinking:      o.opts.ShowThinking,
		ShowSearchResults: o.opts.ShowSearchResults,
		Images:            o.opts.Images,
		Cookie:            cookie,
		Logger:            c.logger,
	})

	if c.req.Stream {
		rec := &recordingSink{Sink: c.sink}
		err := tr.Stream(ctx, resp.Body, rec)
		return attempt{action: actionDone, status: resp.StatusCode, content: rec.sb.String(), err: err}
	}

	content, err := tr.Collect(ctx, resp.Body)
	if err != nil {
		res := c.classify(err)
		res.status = resp.StatusCode
		return res
	}
	return attempt{action: actionDone, status: resp.StatusCode, content: content}
}

// classify maps a transport or read error to network or other.
func (c *call) classify(err error) attempt {
	if category, ok := ClassifyError(err, c.o.opts.NetworkRules); ok {
		c.logger.Warn("network error", "category", category, "error", err)
		return attempt{action: actionPeekRetry, err: err}
	}
	c.logger.Warn("upstream error", "error", err)
	return attempt{action: actionRetire, err: err}
}

func (c *call) result(cred string, attempts int, content string) *Result {
	return &Result{
		ID:         "chatcmpl-" + uuid.NewString(),
		Model:      c.model.ID,
		Tier:       c.tier,
		Credential: pool.MaskCredential(cred),
		Attempts:   attempts,
		Streamed:   c.req.Stream,
		Content:    content,
		Usage:      tokenizer.Usage(c.o.opts.Tokenizer, c.req, content),
	}
}

func (a attempt) label() string {
	switch a.action {
	case actionDone:
		return "success"
	case actionPeekRetry:
		return "network"
	case actionBlocked:
		return "blocked"
	case actionRateLimited:
		return "rate_limited"
	default:
		return "error"
	}
}

func statusErr(resp *http.Response) error {
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxFailurePreview))
	text := strings.TrimSpace(string(preview))
	if text == "" {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return fmt.Errorf("upstream status %d: %s", resp.StatusCode, text)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// recordingSink keeps a copy of everything streamed to the client.
type recordingSink struct {
	translate.Sink
	sb strings.Builder
}

func (s *recordingSink) WriteToken(token string) error {
	s.sb.WriteString(token)
	return s.Sink.WriteToken(token)
}

// IsClientError reports whether err should be shown as the caller's fault.
func IsClientError(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindInvalidInput
}
