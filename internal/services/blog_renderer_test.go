package services

import (
	"strings"
	"testing"
)

func TestBlogRendererRendersMarkdown(t *testing.T) {
	html, err := NewBlogRenderer().Render("# Caring for gold\n\nPolish **gently**.\n\n| Metal | Care |\n|---|---|\n| Gold | Soft cloth |\n")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"<h1", "Caring for gold", "<strong>gently</strong>", "<table>", "<td>Soft cloth</td>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
}

func TestBlogRendererSanitises(t *testing.T) {
	html, err := NewBlogRenderer().Render("Hello <script>alert(1)</script>\n\n[shop](https://luxe.example/shop) <a href=\"javascript:alert(1)\">x</a>")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "<script") || strings.Contains(html, "javascript:") {
		t.Fatalf("unsafe markup survived: %s", html)
	}
	if !strings.Contains(html, "nofollow") {
		t.Fatalf("expected nofollow on links: %s", html)
	}
}
