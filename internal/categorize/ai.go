package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rumor-ml/finflow/internal/domain"
)

const (
	// aiBatchSize bounds how many transactions go into one model request.
	aiBatchSize = 20
	// aiBatchTimeout bounds one model call, retry included separately.
	aiBatchTimeout = 30 * time.Second
	// aiMaxConfidence caps model-reported confidence strictly below the
	// rule engine's 1.0 so a rule always outranks an inference.
	aiMaxConfidence = 0.95
	// aiRetries is the number of retries after a failed batch.
	aiRetries = 1
)

// TextGenerator is the narrow contract to the text-generation service: one
// prompt in, raw model text out, no other side effects.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements TextGenerator against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed text generator. Credentials come
// from the environment, matching the SDK's default resolution.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Generate sends one prompt and returns the raw response text.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// Suggestion is one validated categorization returned by the AI stage.
type Suggestion struct {
	TransactionID string
	CategoryID    domain.CategoryID
	Confidence    float64
	Reasoning     string
}

// AICategorizer asks the text-generation service to categorize transactions
// the earlier stages left unclaimed. Batches are sequential to respect the
// service's rate limits; a batch that fails after its retry is dropped with
// a warning, never failing the run.
type AICategorizer struct {
	generator TextGenerator
}

// NewAICategorizer wraps a text generator.
func NewAICategorizer(generator TextGenerator) *AICategorizer {
	return &AICategorizer{generator: generator}
}

// aiResponse mirrors the JSON array the model is instructed to return.
type aiResponse struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Categorize processes the transactions in fixed-size batches and returns
// every validated suggestion plus warnings for failed batches.
//
// The model response is untrusted input: suggestions whose category is not
// in the closed known set, or whose transaction ID was not in the batch,
// are discarded.
func (a *AICategorizer) Categorize(ctx context.Context, transactions []domain.Transaction, ruleContext []domain.CategoryRule) ([]Suggestion, []string) {
	var suggestions []Suggestion
	var warnings []string

	for start := 0; start < len(transactions); start += aiBatchSize {
		end := start + aiBatchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		batch := transactions[start:end]

		batchSuggestions, err := a.categorizeBatch(ctx, batch, ruleContext)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Warning: AI categorization failed for batch of %d transactions: %v", len(batch), err))
			continue
		}
		suggestions = append(suggestions, batchSuggestions...)
	}

	return suggestions, warnings
}

func (a *AICategorizer) categorizeBatch(ctx context.Context, batch []domain.Transaction, ruleContext []domain.CategoryRule) ([]Suggestion, error) {
	prompt := buildPrompt(batch, ruleContext)

	var raw string
	var err error
	for attempt := 0; attempt <= aiRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, aiBatchTimeout)
		raw, err = a.generator.Generate(callCtx, prompt)
		cancel()
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	var responses []aiResponse
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &responses); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON array: %w", err)
	}

	inBatch := make(map[string]struct{}, len(batch))
	for _, txn := range batch {
		inBatch[txn.ID] = struct{}{}
	}

	suggestions := make([]Suggestion, 0, len(responses))
	for _, r := range responses {
		if _, ok := inBatch[r.ID]; !ok {
			continue
		}
		category := domain.CategoryID(r.Category)
		if !domain.ValidCategory(category) {
			continue
		}
		confidence := r.Confidence
		if confidence > aiMaxConfidence {
			confidence = aiMaxConfidence
		}
		if confidence < 0 {
			confidence = 0
		}
		suggestions = append(suggestions, Suggestion{
			TransactionID: r.ID,
			CategoryID:    category,
			Confidence:    confidence,
			Reasoning:     r.Reasoning,
		})
	}
	return suggestions, nil
}

// buildPrompt assembles the fixed system prompt: the closed category set,
// the user's manual rules as context, and the batch as a JSON list.
func buildPrompt(batch []domain.Transaction, ruleContext []domain.CategoryRule) string {
	var b strings.Builder

	b.WriteString("You are a personal finance categorization assistant.\n\n")
	b.WriteString("Task: assign one category to each bank transaction below.\n")
	b.WriteString("Valid category ids (use these exact strings, nothing else):\n")
	for _, id := range domain.Categories() {
		fmt.Fprintf(&b, "- %s\n", id)
	}

	if len(ruleContext) > 0 {
		b.WriteString("\nThe user already defined these rules; follow their spirit for similar merchants:\n")
		for _, rule := range ruleContext {
			fmt.Fprintf(&b, "- %s %q -> %s\n", rule.MatchType, rule.Pattern, rule.CategoryID)
		}
	}

	b.WriteString("\nRespond with ONLY a JSON array, no markdown fences, one object per transaction:\n")
	b.WriteString(`[{"id": "...", "category": "cat-...", "confidence": 0.0, "reasoning": "..."}]` + "\n\n")
	b.WriteString("Transactions:\n")

	type promptTxn struct {
		ID          string  `json:"id"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Type        string  `json:"type"`
	}
	list := make([]promptTxn, len(batch))
	for i, txn := range batch {
		list[i] = promptTxn{
			ID:          txn.ID,
			Date:        txn.Date.Format("2006-01-02"),
			Description: txn.Description,
			Amount:      txn.Amount.Amount,
			Type:        string(txn.Type),
		}
	}
	encoded, _ := json.Marshal(list)
	b.Write(encoded)

	return b.String()
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// its JSON in despite instructions.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
