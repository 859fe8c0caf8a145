package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	extractTimeout = 30 * time.Second
)

const extractPrompt = `You are an OCR assistant. Extract the following structured data from this receipt:
- Total amount spent
- Expense category (like food, groceries, fuel, etc.)
- Date of transaction

Respond only in JSON format:
{
    "amount": <number>,
    "currency": "<ISO 4217 code, e.g. USD, INR, EUR>",
    "category": "<string>",
    "date": "<YYYY-MM-DD>"
}`

// ContentGenerator is the part of the genai client the extractor needs.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}

	return resp, nil
}

// GeminiExtractor reads receipts with a Gemini model.
type GeminiExtractor struct {
	generator ContentGenerator
	model     string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return NewGeminiExtractorWithGenerator(&modelsAdapter{models: client.Models}, model), nil
}

// NewGeminiExtractorWithGenerator builds an extractor on any ContentGenerator.
func NewGeminiExtractorWithGenerator(generator ContentGenerator, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModel
	}

	return &GeminiExtractor{generator: generator, model: model}
}

func (g *GeminiExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	resp, err := g.generator.GenerateContent(ctx, g.model, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: extractPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			},
		},
	}, &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractorFailed, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no candidates in response", ErrExtractorFailed)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return parseExtraction(text.String())
}

type extractionResponse struct {
	Amount   json.RawMessage `json:"amount"`
	Currency *string         `json:"currency"`
	Category *string         `json:"category"`
	Date     *string         `json:"date"`
}

// parseExtraction pulls the outermost JSON object out of a model answer.
// Every field must be present and the amount must be positive.
func parseExtraction(text string) (*Extraction, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in model response", ErrUnreadable)
	}

	var raw extractionResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding model response: %w", ErrUnreadable, err)
	}

	if len(raw.Amount) == 0 || raw.Currency == nil || raw.Category == nil || raw.Date == nil {
		return nil, fmt.Errorf("%w: incomplete data extracted from receipt", ErrUnreadable)
	}

	amount, err := decimal.NewFromString(strings.Trim(string(raw.Amount), `"`))
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: invalid amount %s", ErrUnreadable, raw.Amount)
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(*raw.Date))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrUnreadable, *raw.Date)
	}

	return &Extraction{
		Amount:   amount,
		Currency: strings.TrimSpace(*raw.Currency),
		Category: strings.TrimSpace(*raw.Category),
		Date:     date,
	}, nil
}
