package prepare

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/types"
)

type fakeUploader struct {
	mu        sync.Mutex
	texts     []string
	images    []string
	imageErr  error
	textErr   error
	nextImage int
}

func (f *fakeUploader) UploadText(_ context.Context, _, name, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return "", f.textErr
	}
	f.texts = append(f.texts, text)
	return "file-" + name, nil
}

func (f *fakeUploader) UploadImage(_ context.Context, _, dataURI string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.imageErr != nil {
		return "", f.imageErr
	}
	f.images = append(f.images, dataURI)
	f.nextImage++
	return "img-" + string(rune('0'+f.nextImage)), nil
}

func model(t *testing.T, id string) catalog.Model {
	t.Helper()
	m, err := catalog.Default().Lookup(id)
	require.NoError(t, err)
	return m
}

func newPreparer(t *testing.T, up *fakeUploader, opts Options) *Preparer {
	t.Helper()
	p, err := New(up, opts)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func text(role, s string) types.Message { return types.NewTextMessage(role, s) }

func TestPrepareSerializesAndMergesRoles(t *testing.T) {
	p := newPreparer(t, &fakeUploader{}, Options{TempConversation: true})

	msgs := []types.Message{
		text(types.RoleSystem, "be brief"),
		text(types.RoleUser, "hello"),
		text(types.RoleAssistant, "hi <think>internal</think>there"),
		text(types.RoleUser, "question"),
	}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)

	assert.Equal(t, "USER: be brief\nhello\nASSISTANT: hi there\nUSER: question", payload.Message)
	assert.Equal(t, "grok-3", payload.ModelName)
	assert.True(t, payload.Temporary)
	assert.Empty(t, payload.FileAttachments)
	assert.False(t, payload.Spilled)
}

func TestPrepareEmptyMessage(t *testing.T) {
	p := newPreparer(t, &fakeUploader{}, Options{})

	_, err := p.Prepare(context.Background(), model(t, "grok-3"), nil, false, "c")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = p.Prepare(context.Background(), model(t, "grok-3"),
		[]types.Message{text(types.RoleUser, "  <think>only thoughts</think> ")}, false, "c")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, "message content empty", err.Error())
}

func TestPrepareSingleTurn(t *testing.T) {
	p := newPreparer(t, &fakeUploader{}, Options{})
	m := model(t, "grok-3-deepsearch")

	_, err := p.Prepare(context.Background(), m, []types.Message{
		text(types.RoleUser, "q"),
		text(types.RoleAssistant, "a"),
	}, false, "c")
	assert.ErrorIs(t, err, ErrSingleTurn)

	payload, err := p.Prepare(context.Background(), m, []types.Message{
		text(types.RoleUser, "first"),
		text(types.RoleAssistant, "answer"),
		text(types.RoleUser, "second"),
	}, false, "c")
	require.NoError(t, err)
	assert.Equal(t, "USER: second", payload.Message)
	assert.Equal(t, "default", payload.DeepsearchPreset)
}

func TestPrepareStreamingImageGenNeedsHost(t *testing.T) {
	msgs := []types.Message{text(types.RoleUser, "draw a cat")}

	p := newPreparer(t, &fakeUploader{}, Options{})
	_, err := p.Prepare(context.Background(), model(t, "grok-2-imageGen"), msgs, true, "c")
	assert.ErrorIs(t, err, ErrImageHostRequired)

	payload, err := p.Prepare(context.Background(), model(t, "grok-2-imageGen"), msgs, false, "c")
	require.NoError(t, err)
	assert.True(t, payload.ToolOverrides.ImageGen)

	hosted := newPreparer(t, &fakeUploader{}, Options{ImageHostConfigured: true})
	_, err = hosted.Prepare(context.Background(), model(t, "grok-3-imageGen"), msgs, true, "c")
	assert.NoError(t, err)
}

func TestPrepareSpill(t *testing.T) {
	up := &fakeUploader{}
	p := newPreparer(t, up, Options{})

	big := strings.Repeat("a", 45000)
	msgs := []types.Message{
		text(types.RoleUser, big),
		text(types.RoleAssistant, "noted"),
		text(types.RoleUser, "summarize it"),
	}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)

	assert.True(t, payload.Spilled)
	assert.Equal(t, "USER: summarize it", payload.Message)
	require.NotEmpty(t, payload.FileAttachments)
	assert.Equal(t, "file-"+SpillFileName, payload.FileAttachments[0])

	require.Len(t, up.texts, 1)
	assert.Equal(t, "USER: "+big+"\nASSISTANT: noted\n", up.texts[0])
}

func TestPrepareSpillOnFinalTurnUsesPointer(t *testing.T) {
	up := &fakeUploader{}
	p := newPreparer(t, up, Options{})

	msgs := []types.Message{text(types.RoleUser, strings.Repeat("b", 45000))}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)

	assert.Equal(t, SpillPointer, payload.Message)
	assert.Equal(t, []string{"file-" + SpillFileName}, payload.FileAttachments)
}

func TestPrepareSpillCountsCharacters(t *testing.T) {
	p := newPreparer(t, &fakeUploader{}, Options{})

	// 30,000 three-byte runes stay under the character threshold.
	msgs := []types.Message{
		text(types.RoleUser, strings.Repeat("界", 30000)),
		text(types.RoleUser, "tail"),
	}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)
	assert.False(t, payload.Spilled)
}

func TestPrepareSpillUploadFailure(t *testing.T) {
	up := &fakeUploader{textErr: errors.New("denied")}
	p := newPreparer(t, up, Options{})

	msgs := []types.Message{
		text(types.RoleUser, strings.Repeat("a", 45000)),
		text(types.RoleUser, "x"),
	}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)
	assert.False(t, payload.Spilled)
	assert.Equal(t, "USER: x", payload.Message)
	assert.Empty(t, payload.FileAttachments)
}

func TestPrepareSpillUploadFailureOnFinalTurnSendsHistory(t *testing.T) {
	up := &fakeUploader{textErr: errors.New("denied")}
	p := newPreparer(t, up, Options{})

	big := strings.Repeat("b", 45000)
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), []types.Message{text(types.RoleUser, big)}, false, "c")
	require.NoError(t, err)
	assert.False(t, payload.Spilled)
	assert.Equal(t, "USER: "+big, payload.Message)
}

func TestPrepareImages(t *testing.T) {
	up := &fakeUploader{}
	p := newPreparer(t, up, Options{})

	msgs := []types.Message{
		types.NewImageMessage(types.RoleUser, "first", "data:image/png;base64,AAAA"),
		text(types.RoleAssistant, "seen ![image](data:image/png;base64,QUJD) here"),
		types.NewImageMessage(types.RoleUser, "", "data:image/png;base64,BBBB"),
	}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)

	assert.Equal(t, "USER: first\n[image]\nASSISTANT: seen [image] here\nUSER: [image]", payload.Message)
	assert.Equal(t, []string{"img-1", "img-2"}, payload.FileAttachments)

	// Same images under the same session are served from the cache.
	_, err = p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)
	assert.Len(t, up.images, 2)
}

func TestPrepareAttachmentCap(t *testing.T) {
	p := newPreparer(t, &fakeUploader{}, Options{})

	var parts []types.ContentPart
	for _, b := range []string{"A", "B", "C", "D", "E", "F"} {
		parts = append(parts, types.ContentPart{
			Type:     types.ContentTypeImageURL,
			ImageURL: &types.ImageURL{URL: "data:image/png;base64," + b},
		})
	}
	msgs := []types.Message{{Role: types.RoleUser, Content: types.Content{Parts: parts}}}

	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"img-1", "img-2", "img-3", "img-4"}, payload.FileAttachments)
}

func TestPrepareImageUploadFailureSkipped(t *testing.T) {
	p := newPreparer(t, &fakeUploader{imageErr: errors.New("boom")}, Options{})

	msgs := []types.Message{types.NewImageMessage(types.RoleUser, "look", "data:image/png;base64,AAAA")}
	payload, err := p.Prepare(context.Background(), model(t, "grok-3"), msgs, false, "c")
	require.NoError(t, err)
	assert.Empty(t, payload.FileAttachments)
	assert.Equal(t, "USER: look\n[image]", payload.Message)
}

func TestPayloadToggles(t *testing.T) {
	p := newPreparer(t, &fakeUploader{}, Options{})
	msgs := []types.Message{text(types.RoleUser, "q")}

	search, err := p.Prepare(context.Background(), model(t, "grok-3-search"), msgs, false, "c")
	require.NoError(t, err)
	assert.True(t, search.ToolOverrides.WebSearch)
	assert.True(t, search.ToolOverrides.XSearch)

	deeper, err := p.Prepare(context.Background(), model(t, "grok-3-deepersearch"), msgs, false, "c")
	require.NoError(t, err)
	assert.Equal(t, "deeper", deeper.DeepsearchPreset)

	reasoning, err := p.Prepare(context.Background(), model(t, "grok-3-reasoning"), msgs, false, "c")
	require.NoError(t, err)
	assert.True(t, reasoning.IsReasoning)

	raw, err := reasoning.Encode()
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, []any{}, wire["fileAttachments"])
	assert.NotContains(t, wire, "deepsearchPreset")
	assert.NotContains(t, wire, "Spilled")
}

func TestStripText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"<think>a\nb</think>answer", "answer"},
		{"x<think>1</think>y<think>2</think>z", "xyz"},
		{"see ![image](data:image/jpeg;base64,/9j/AA) now", "see [image] now"},
		{"  padded  ", "padded"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stripText(tc.in), tc.in)
	}
}
