package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a title and reduces it to hyphen-separated
// alphanumeric runs, capped at 60 characters.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
		if idx := strings.LastIndex(slug, "-"); idx > 0 {
			slug = slug[:idx]
		}
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// ArticleWriter persists deep-dive threads as markdown articles
type ArticleWriter struct {
	dir string
}

// NewArticleWriter creates a writer rooted at dir
func NewArticleWriter(dir string) *ArticleWriter {
	return &ArticleWriter{dir: dir}
}

// Write renders a thread as a dated markdown article and returns its
// path. Filename is YYYY-MM-DD-<slug>.md.
func (w *ArticleWriter) Write(title, sourceURL string, parts []string, publishedAt time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create article dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.md", publishedAt.Format("2006-01-02"), Slugify(title))
	path := filepath.Join(w.dir, name)

	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %q\n", title)
	fmt.Fprintf(&sb, "date: %s\n", publishedAt.Format(time.RFC3339))
	if sourceURL != "" {
		fmt.Fprintf(&sb, "source: %s\n", sourceURL)
	}
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "# %s\n", title)
	for _, part := range parts {
		sb.WriteString("\n")
		sb.WriteString(part)
		sb.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write article: %w", err)
	}

	return path, nil
}
