package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	internalConfig "github.com/sefazor/proparse-backend/internal/config"
)

// Sağlayıcı hatalarının çevrildiği ayrışık hata türleri. Retry yok;
// hata mesaj olarak kullanıcıya aktarılır.
var (
	ErrTimeout   = errors.New("extraction timed out, please try again with a smaller document")
	ErrRateLimit = errors.New("AI provider rate limit exceeded, please try again shortly")
	ErrQuota     = errors.New("AI provider quota exhausted")
	ErrAuth      = errors.New("AI provider authentication failed")
)

type Client struct {
	client *openai.Client
	model  string
	cfg    *internalConfig.Config
}

func NewClient(cfg *internalConfig.Config) *Client {
	return &Client{
		client: openai.NewClient(cfg.OpenAI.APIKey),
		model:  cfg.OpenAI.Model,
		cfg:    cfg,
	}
}

type ClassificationResult struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
}

const classifySystemPrompt = `You are a commercial real estate document classifier.
Classify the document into exactly one of: rent_roll, offering_memo, lease_agreement, comparable_sales, financial_statement.
Respond with JSON: {"document_type": "...", "confidence": 0.0-1.0}`

// Doküman türüne göre alan çıkarma promptları
var extractionPrompts = map[string]string{
	"rent_roll": `Extract every unit from this rent roll. Respond with JSON:
{"property_name": "", "as_of_date": "", "units": [{"unit": "", "tenant": "", "sqft": 0, "monthly_rent": 0, "lease_start": "", "lease_end": "", "status": ""}], "totals": {"occupied_units": 0, "vacant_units": 0, "monthly_income": 0}}`,
	"offering_memo": `Extract the key facts from this offering memorandum. Respond with JSON:
{"property_name": "", "address": "", "asking_price": 0, "cap_rate": 0, "noi": 0, "building_sqft": 0, "lot_size": "", "year_built": 0, "units": 0, "highlights": []}`,
	"lease_agreement": `Extract the lease terms from this lease agreement. Respond with JSON:
{"landlord": "", "tenant": "", "premises": "", "lease_start": "", "lease_end": "", "base_rent": 0, "rent_escalations": "", "security_deposit": 0, "options": [], "permitted_use": ""}`,
	"comparable_sales": `Extract every comparable from this sales comparison document. Respond with JSON:
{"subject_property": "", "comparables": [{"address": "", "sale_date": "", "sale_price": 0, "building_sqft": 0, "price_per_sqft": 0, "cap_rate": 0}]}`,
	"financial_statement": `Extract the line items from this financial statement. Respond with JSON:
{"property_name": "", "period": "", "income": [{"item": "", "amount": 0}], "expenses": [{"item": "", "amount": 0}], "noi": 0}`,
}

// PromptFor, türe ait çıkarma promptunu döner. Fine-tune export
// dosyasındaki system mesajı da aynı prompttan üretilir.
func PromptFor(documentType string) (string, bool) {
	prompt, ok := extractionPrompts[documentType]
	return prompt, ok
}

// Classify, dokümanın türünü tahmin eder. Kredi maliyeti yoktur.
func (c *Client) Classify(ctx context.Context, fileURL string) (*ClassificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpenAI.RequestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Classify this document."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: fileURL}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, translateError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from AI provider")
	}

	var result ClassificationResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	return &result, nil
}

// Extract, dokümandan türüne göre yapılandırılmış veri çıkarır
func (c *Client) Extract(ctx context.Context, documentType string, fileURL string) (json.RawMessage, error) {
	prompt, ok := extractionPrompts[documentType]
	if !ok {
		return nil, fmt.Errorf("unsupported document type: %s", documentType)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpenAI.RequestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Extract the data from this document."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: fileURL}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, translateError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from AI provider")
	}

	return json.RawMessage(resp.Choices[0].Message.Content), nil
}

// translateError, sağlayıcı hatalarını kullanıcıya gösterilebilir türlere çevirir
func translateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return ErrAuth
		case 429:
			if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
				return ErrQuota
			}
			return ErrRateLimit
		}
	}

	return fmt.Errorf("extraction provider error: %w", err)
}
