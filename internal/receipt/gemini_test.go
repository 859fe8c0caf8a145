package receipt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error

	gotModel    string
	gotContents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotContents = contents

	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestParseExtraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     *Extraction
		wantErr  bool
	}{
		{
			name:     "NumericAmount",
			response: `{"amount": 54.60, "currency": "SGD", "category": "Food", "date": "2019-04-21"}`,
			want: &Extraction{
				Amount:   decimal.RequireFromString("54.60"),
				Currency: "SGD",
				Category: "Food",
				Date:     time.Date(2019, 4, 21, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "StringAmountInMarkdown",
			response: "Here you go:\n```json\n{\"amount\": \"10.50\", \"currency\": \"usd\", \"category\": \"Fuel\", \"date\": \"2024-01-15\"}\n```",
			want: &Extraction{
				Amount:   decimal.RequireFromString("10.50"),
				Currency: "usd",
				Category: "Fuel",
				Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{name: "NoJSON", response: "I could not read this receipt.", wantErr: true},
		{name: "MissingDate", response: `{"amount": 1, "currency": "USD", "category": "Food"}`, wantErr: true},
		{name: "MissingCurrency", response: `{"amount": 1, "category": "Food", "date": "2024-01-01"}`, wantErr: true},
		{name: "ZeroAmount", response: `{"amount": 0, "currency": "USD", "category": "Food", "date": "2024-01-01"}`, wantErr: true},
		{name: "NegativeAmount", response: `{"amount": -4, "currency": "USD", "category": "Food", "date": "2024-01-01"}`, wantErr: true},
		{name: "NullAmount", response: `{"amount": null, "currency": "USD", "category": "Food", "date": "2024-01-01"}`, wantErr: true},
		{name: "BadDate", response: `{"amount": 3, "currency": "USD", "category": "Food", "date": "15/01/2024"}`, wantErr: true},
		{name: "BrokenJSON", response: `{"amount": 3, "currency": }`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseExtraction(tt.response)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnreadable)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Amount.Equal(got.Amount), "amount %s", got.Amount)
			assert.Equal(t, tt.want.Currency, got.Currency)
			assert.Equal(t, tt.want.Category, got.Category)
			assert.Equal(t, tt.want.Date, got.Date)
		})
	}
}

func TestGeminiExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{
		resp: textResponse(`{"amount": 12.5, "currency": "EUR", "category": "Groceries", "date": "2024-02-02"}`),
	}
	ex := NewGeminiExtractorWithGenerator(gen, "")

	got, err := ex.Extract(context.Background(), []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, DefaultModel, gen.gotModel)

	require.Len(t, gen.gotContents, 1)
	parts := gen.gotContents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, `"currency"`)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte("png-bytes"), parts[1].InlineData.Data)
}

func TestGeminiExtractor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		wantErr error
	}{
		{name: "APIError", gen: &fakeGenerator{err: errors.New("quota exceeded")}, wantErr: ErrExtractorFailed},
		{name: "NoCandidates", gen: &fakeGenerator{resp: &genai.GenerateContentResponse{}}, wantErr: ErrExtractorFailed},
		{name: "Unparsable", gen: &fakeGenerator{resp: textResponse("sorry")}, wantErr: ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewGeminiExtractorWithGenerator(tt.gen, "gemini-test")

			_, err := ex.Extract(context.Background(), []byte("x"), "image/jpeg")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewGeminiExtractor_RequiresKey(t *testing.T) {
	_, err := NewGeminiExtractor(context.Background(), "", "")
	require.Error(t, err)
}
