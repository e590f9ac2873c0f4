package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"panchang-backend/internal/domain"
	openai "panchang-backend/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI composes daily guidance and answers through Chat Completions.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
}

var (
	_ domain.InsightComposer = (*OpenAI)(nil)
	_ domain.AnswerComposer  = (*OpenAI)(nil)
)

// NewOpenAI creates the LLM-backed composer.
func NewOpenAI(client chatClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

const composerSystemPrompt = "You are a considerate Vedic almanac guide. Ground every statement in the almanac details provided, keep a warm practical tone and do not invent planetary data."

// ComposeDaily writes the guidance text for one almanac day.
func (o *OpenAI) ComposeDaily(ctx context.Context, p domain.Panchang, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(`Write a daily guidance of 120-180 words in language %q for this almanac day.
Mention the favorable windows and one caution. Plain text, no headings.
%s`, languageOrDefault(language), panchangContext(p))

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.6,
		MaxTokens:   400,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: composerSystemPrompt},
			{Role: openai.RoleUser, Content: userPrompt},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ComposeAnswer answers a free-form question against the almanac day and
// the asking user's profile.
func (o *OpenAI) ComposeAnswer(ctx context.Context, p domain.Panchang, profile domain.User, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var b strings.Builder
	b.WriteString("Answer the user's question in at most 150 words, drawing only on the almanac details below.\n")
	b.WriteString(panchangContext(p))
	if profile.BirthDate != nil {
		fmt.Fprintf(&b, "The user was born on %s", profile.BirthDate.Format("2006-01-02"))
		if profile.BirthTime != "" {
			fmt.Fprintf(&b, " at %s", profile.BirthTime)
		}
		if profile.BirthPlace != "" {
			fmt.Fprintf(&b, " in %s", profile.BirthPlace)
		}
		b.WriteString(".\n")
	}
	fmt.Fprintf(&b, "Question: %s", strings.TrimSpace(question))

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.7,
		MaxTokens:   400,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: composerSystemPrompt},
			{Role: openai.RoleUser, Content: b.String()},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func panchangContext(p domain.Panchang) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s (%s), location %s.\n", p.DateKey(), p.Vara, p.Location)
	fmt.Fprintf(&b, "Tithi: %s (%s Paksha). Nakshatra: %s, pada %d. Yoga: %s. Karana: %s.\n", p.Tithi, p.Paksha, p.Nakshatra, p.Pada, p.Yoga, p.Karana)
	fmt.Fprintf(&b, "Sunrise %s, sunset %s.\n", p.Sunrise, p.Sunset)
	fmt.Fprintf(&b, "Rahu Kaal %s. Gulika Kaal %s. Yamaganda %s.\n", p.RahuKaal, p.GulikaKaal, p.Yamaganda)
	fmt.Fprintf(&b, "Abhijit Muhurat %s. Brahma Muhurta %s.\n", p.AbhijitMuhurat, p.BrahmaMuhurta)
	if len(p.Planets) > 0 {
		parts := make([]string, 0, len(p.Planets))
		for _, pl := range p.Planets {
			s := fmt.Sprintf("%s in %s", pl.Graha, pl.Rashi)
			if pl.Retrograde {
				s += " (retrograde)"
			}
			parts = append(parts, s)
		}
		fmt.Fprintf(&b, "Grahas: %s.\n", strings.Join(parts, ", "))
	}
	return b.String()
}

func languageOrDefault(language string) string {
	if strings.TrimSpace(language) == "" {
		return "en"
	}
	return language
}
