package prepare

import (
	"encoding/json"

	"github.com/mandalnilabja/grokway/internal/catalog"
)

// ToolOverrides toggles upstream tools for one conversation.
type ToolOverrides struct {
	ImageGen     bool `json:"imageGen"`
	WebSearch    bool `json:"webSearch"`
	XSearch      bool `json:"xSearch"`
	XMediaSearch bool `json:"xMediaSearch"`
	TrendsSearch bool `json:"trendsSearch"`
	XPostAnalyze bool `json:"xPostAnalyze"`
}

// Payload is the body of a new-conversation request.
type Payload struct {
	Temporary                 bool          `json:"temporary"`
	ModelName                 string        `json:"modelName"`
	Message                   string        `json:"message"`
	FileAttachments           []string      `json:"fileAttachments"`
	ImageAttachments          []string      `json:"imageAttachments"`
	DisableSearch             bool          `json:"disableSearch"`
	EnableImageGeneration     bool          `json:"enableImageGeneration"`
	ReturnImageBytes          bool          `json:"returnImageBytes"`
	ReturnRawGrokInXaiRequest bool          `json:"returnRawGrokInXaiRequest"`
	EnableImageStreaming      bool          `json:"enableImageStreaming"`
	ImageGenerationCount      int           `json:"imageGenerationCount"`
	ForceConcise              bool          `json:"forceConcise"`
	ToolOverrides             ToolOverrides `json:"toolOverrides"`
	EnableSideBySide          bool          `json:"enableSideBySide"`
	IsPreset                  bool          `json:"isPreset"`
	SendFinalMetadata         bool          `json:"sendFinalMetadata"`
	CustomInstructions        string        `json:"customInstructions"`
	CustomPersonality         string        `json:"customPersonality"`
	DeepsearchPreset          string        `json:"deepsearchPreset,omitempty"`
	IsReasoning               bool          `json:"isReasoning"`
	DisableTextFollowUps      bool          `json:"disableTextFollowUps"`

	// Spilled is set when the history went out as a text attachment.
	Spilled bool `json:"-"`
}

// newPayload fills the fixed fields and the per-model toggles.
func newPayload(model catalog.Model, temporary bool) *Payload {
	search := model.Behavior == catalog.BehaviorSearch
	return &Payload{
		Temporary:             temporary,
		ModelName:             model.Upstream,
		FileAttachments:       []string{},
		ImageAttachments:      []string{},
		EnableImageGeneration: true,
		ImageGenerationCount:  1,
		ToolOverrides: ToolOverrides{
			ImageGen:     model.ImageGen,
			WebSearch:    search,
			XSearch:      search,
			XMediaSearch: search,
			TrendsSearch: search,
			XPostAnalyze: search,
		},
		EnableSideBySide:     true,
		SendFinalMetadata:    true,
		DeepsearchPreset:     model.DeepsearchPreset,
		IsReasoning:          model.Behavior == catalog.BehaviorReasoning,
		DisableTextFollowUps: true,
	}
}

// Encode returns the JSON wire form.
func (p *Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}
