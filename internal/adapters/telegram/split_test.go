package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageKeepsParagraphsTogether(t *testing.T) {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("a", 3000))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("b", 2000))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("c", 500))

	parts := SplitMessage(builder.String())
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, part := range parts {
		if length := len([]rune(part)); length > messageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}
	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatalf("expected the first paragraph alone in part 0")
	}
	if !strings.HasPrefix(parts[1], strings.Repeat("b", 2000)) {
		t.Fatalf("expected part 1 to start with the b paragraph")
	}
	if !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatalf("expected the c paragraph packed into part 1")
	}
}

func TestSplitMessageOversizedParagraph(t *testing.T) {
	lines := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		lines = append(lines, strings.Repeat("x", 1500))
	}
	parts := SplitMessage(strings.Join(lines, "\n"))

	if len(parts) < 2 {
		t.Fatalf("expected the paragraph to be split, got %d parts", len(parts))
	}
	for i, part := range parts {
		if length := len([]rune(part)); length > messageLimit {
			t.Fatalf("part %d exceeds limit: %d", i, length)
		}
	}
}

func TestSplitMessageHardCut(t *testing.T) {
	parts := SplitMessage(strings.Repeat("y", messageLimit*2+10))
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts for an unbroken line, got %d", len(parts))
	}
	if len([]rune(parts[0])) != messageLimit {
		t.Fatalf("expected a full first chunk, got %d", len([]rune(parts[0])))
	}
	if len([]rune(parts[2])) != 10 {
		t.Fatalf("expected 10 trailing runes, got %d", len([]rune(parts[2])))
	}
}

func TestSplitMessageShortText(t *testing.T) {
	text := "hello world"
	parts := SplitMessage(text)
	if len(parts) != 1 {
		t.Fatalf("expected single part, got %d", len(parts))
	}
	if parts[0] != text {
		t.Fatalf("unexpected text: %q", parts[0])
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	parts := SplitMessage("   \n  ")
	if len(parts) != 0 {
		t.Fatalf("expected no parts for empty input, got %d", len(parts))
	}
}
