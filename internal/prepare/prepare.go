// Package prepare turns a chat history into one upstream conversation payload.
package prepare

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/provider"
	"github.com/mandalnilabja/grokway/internal/types"
)

const (
	// SpillThreshold is the serialized history length, in characters, at
	// which the history moves into a text attachment.
	SpillThreshold = 40000

	// MaxAttachments caps the attachment list sent upstream.
	MaxAttachments = 4

	// SpillFileName names the history attachment.
	SpillFileName = "message.txt"

	// SpillPointer is the body sent when the held-back final turn is empty.
	SpillPointer = "Reply based on the contents of the attached txt file."
)

// Options configures a Preparer.
type Options struct {
	// TempConversation marks conversations as temporary upstream.
	TempConversation bool

	// ImageHostConfigured allows streaming image generation.
	ImageHostConfigured bool

	Logger *slog.Logger
}

// Preparer builds conversation payloads. Uploaded image ids are cached
// per session cookie and image content.
type Preparer struct {
	uploader provider.Uploader
	cache    *ristretto.Cache[string, string]
	opts     Options
	logger   *slog.Logger
}

// New creates a Preparer that uploads attachments through uploader.
func New(uploader provider.Uploader, opts Options) (*Preparer, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("upload cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{
		uploader: uploader,
		cache:    cache,
		opts:     opts,
		logger:   logger.With("component", "prepare"),
	}, nil
}

// Close releases the upload cache.
func (p *Preparer) Close() {
	p.cache.Close()
}

// block is one merged run of same-role turns.
type block struct {
	role string
	text string
}

func (b block) String() string {
	return b.role + ": " + b.text + "\n"
}

// Prepare builds the payload for messages. cookie authenticates uploads.
func (p *Preparer) Prepare(ctx context.Context, model catalog.Model, messages []types.Message, stream bool, cookie string) (*Payload, error) {
	if model.ImageGen && stream && !p.opts.ImageHostConfigured {
		return nil, ErrImageHostRequired
	}

	turns := messages
	if model.SingleTurn {
		if len(turns) == 0 || turns[len(turns)-1].Role != types.RoleUser {
			return nil, ErrSingleTurn
		}
		turns = turns[len(turns)-1:]
	}

	var (
		attachments []string
		blocks      []block
		length      int
		spill       bool
		held        string
	)

	for i, msg := range turns {
		last := i == len(turns)-1
		role := roleLabel(msg.Role)

		for _, uri := range imageURIs(msg.Content) {
			if id := p.uploadImage(ctx, cookie, uri); id != "" && !slices.Contains(attachments, id) {
				attachments = append(attachments, id)
			}
		}

		text := renderContent(msg.Content)
		if last && spill {
			// The held-back turn keeps its role header like any other block.
			held = role + ": " + orPlaceholder(text)
			continue
		}

		if text != "" || (last && len(attachments) > 0) {
			n := len(blocks)
			if n > 0 && blocks[n-1].role == role && text != "" {
				length -= utf8.RuneCountInString(blocks[n-1].String())
				blocks[n-1].text += "\n" + text
				length += utf8.RuneCountInString(blocks[n-1].String())
			} else {
				b := block{role: role, text: orPlaceholder(text)}
				blocks = append(blocks, b)
				length += utf8.RuneCountInString(b.String())
			}
		}
		if length >= SpillThreshold {
			spill = true
		}
	}

	history := serialize(blocks)
	payload := newPayload(model, p.opts.TempConversation)

	body := strings.TrimSpace(history)
	if spill {
		id, err := p.uploader.UploadText(ctx, cookie, SpillFileName, history)
		if err != nil {
			// Send the held-back turn alone, or the inline history when nothing was held.
			p.logger.Warn("history upload failed, sending last turn only", "model", model.ID, "chars", length, "error", err)
			if held != "" {
				body = strings.TrimSpace(held)
			}
		} else {
			attachments = append([]string{id}, attachments...)
			body = strings.TrimSpace(held)
			if body == "" {
				body = SpillPointer
			}
			payload.Spilled = true
			p.logger.Info("history spilled to attachment", "model", model.ID, "chars", length, "file_id", id)
		}
	}
	if body == "" {
		return nil, ErrEmptyMessage
	}

	if len(attachments) > MaxAttachments {
		attachments = attachments[:MaxAttachments]
	}
	payload.Message = body
	payload.FileAttachments = append(payload.FileAttachments, attachments...)
	return payload, nil
}

// uploadImage returns the file id for uri, uploading it on a cache miss.
// Failures are logged and yield "".
func (p *Preparer) uploadImage(ctx context.Context, cookie, uri string) string {
	key := cacheKey(cookie, uri)
	if id, ok := p.cache.Get(key); ok {
		return id
	}

	id, err := p.uploader.UploadImage(ctx, cookie, uri)
	if err != nil {
		p.logger.Warn("image upload failed", "error", err)
		return ""
	}
	if p.cache.Set(key, id, int64(len(id))) {
		p.cache.Wait()
	}
	return id
}

func cacheKey(cookie, uri string) string {
	h := sha256.New()
	h.Write([]byte(cookie))
	h.Write([]byte{0})
	h.Write([]byte(uri))
	return hex.EncodeToString(h.Sum(nil))
}

func serialize(blocks []block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.String())
	}
	return sb.String()
}

func orPlaceholder(text string) string {
	if text == "" {
		return ImagePlaceholder
	}
	return text
}
