package insight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"panchang-backend/internal/domain"
	openai "panchang-backend/internal/infra/openai"
)

type stubChat struct {
	resp     openai.ChatCompletionResponse
	err      error
	captured openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.captured = req
	return s.resp, s.err
}

func samplePanchang() domain.Panchang {
	return domain.Panchang{
		Date:           time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Location:       "New Delhi",
		Sunrise:        "06:00",
		Sunset:         "18:15",
		Tithi:          "Dashami",
		Paksha:         "Shukla",
		Nakshatra:      "Magha",
		Pada:           3,
		Yoga:           "Vyaghata",
		Karana:         "Naga",
		Vara:           "Ravivar",
		RahuKaal:       domain.TimeWindow{Start: "16:43", End: "18:15"},
		GulikaKaal:     domain.TimeWindow{Start: "15:12", End: "16:43"},
		Yamaganda:      domain.TimeWindow{Start: "12:07", End: "13:39"},
		AbhijitMuhurat: domain.TimeWindow{Start: "11:43", End: "12:32"},
		BrahmaMuhurta:  domain.TimeWindow{Start: "04:24", End: "06:00"},
		Planets: []domain.PlanetPosition{
			{Graha: "Surya", Longitude: 290, Rashi: "Makara"},
			{Graha: "Rahu", Longitude: 230, Rashi: "Vrishchika", Retrograde: true},
		},
	}
}

func TestComposeDaily(t *testing.T) {
	chat := &stubChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Role: "assistant", Content: "  A calm day for steady work.  "}}},
	}}
	composer := NewOpenAI(chat, "gpt-4o-mini", time.Second)

	text, err := composer.ComposeDaily(context.Background(), samplePanchang(), "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "A calm day for steady work." {
		t.Fatalf("expected trimmed completion text, got %q", text)
	}
	if chat.captured.Model != "gpt-4o-mini" {
		t.Fatalf("expected configured model, got %q", chat.captured.Model)
	}
	if len(chat.captured.Messages) != 2 {
		t.Fatalf("expected system and user message, got %d", len(chat.captured.Messages))
	}
	prompt := chat.captured.Messages[1].Content
	for _, want := range []string{"Dashami", "Magha", "Rahu Kaal 16:43 – 18:15", "New Delhi"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to mention %q, got %q", want, prompt)
		}
	}
}

func TestComposeDailyError(t *testing.T) {
	wantErr := errors.New("rate limited")
	composer := NewOpenAI(&stubChat{err: wantErr}, "", 0)

	_, err := composer.ComposeDaily(context.Background(), samplePanchang(), "en")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestComposeDailyEmptyChoices(t *testing.T) {
	composer := NewOpenAI(&stubChat{}, "", 0)

	_, err := composer.ComposeDaily(context.Background(), samplePanchang(), "en")
	if err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestComposeAnswer(t *testing.T) {
	chat := &stubChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Role: "assistant", Content: "Wait for Abhijit Muhurat."}}},
	}}
	composer := NewOpenAI(chat, "gpt-4o-mini", time.Second)

	birth := time.Date(1990, 7, 14, 0, 0, 0, 0, time.UTC)
	profile := domain.User{BirthDate: &birth, BirthTime: "05:30", BirthPlace: "Jaipur"}

	text, err := composer.ComposeAnswer(context.Background(), samplePanchang(), profile, " Is today good for signing a lease? ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Wait for Abhijit Muhurat." {
		t.Fatalf("unexpected answer text %q", text)
	}
	prompt := chat.captured.Messages[1].Content
	for _, want := range []string{"Question: Is today good for signing a lease?", "1990-07-14", "05:30", "Jaipur", "Dashami"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to mention %q, got %q", want, prompt)
		}
	}
}

func TestComposeAnswerSkipsEmptyBirthData(t *testing.T) {
	chat := &stubChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Content: "ok"}}},
	}}
	composer := NewOpenAI(chat, "", 0)

	_, err := composer.ComposeAnswer(context.Background(), samplePanchang(), domain.User{}, "when?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(chat.captured.Messages[1].Content, "was born") {
		t.Fatalf("expected no birth details for empty profile")
	}
}
