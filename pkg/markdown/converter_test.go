package markdown

import (
	"strings"
	"testing"
)

func TestToTelegramHTMLBoldAndItalic(t *testing.T) {
	got := ToTelegramHTML("**bold** and *italic*")
	if !strings.Contains(got, "<b>bold</b>") {
		t.Fatalf("expected <b> tag, got %q", got)
	}
	if !strings.Contains(got, "<i>italic</i>") {
		t.Fatalf("expected <i> tag, got %q", got)
	}
}

func TestToTelegramHTMLLists(t *testing.T) {
	got := ToTelegramHTML("- one\n- two")
	if strings.Contains(got, "<ul>") || strings.Contains(got, "<li>") {
		t.Fatalf("list tags must be stripped: %q", got)
	}
	if !strings.Contains(got, "• one") {
		t.Fatalf("expected bullet items, got %q", got)
	}
}

func TestToTelegramHTMLDropsUnsupportedTags(t *testing.T) {
	got := ToTelegramHTML("# Heading\n\ntext")
	if strings.Contains(got, "<h1>") || strings.Contains(got, "</h1>") {
		t.Fatalf("heading tags must be stripped: %q", got)
	}
	if !strings.Contains(got, "Heading") {
		t.Fatalf("heading text must survive: %q", got)
	}
}

func TestToTelegramHTMLEmpty(t *testing.T) {
	if got := ToTelegramHTML(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
