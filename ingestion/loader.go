package ingestion

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/poiesic/embedbench/core"
)

// contentSelectors are tried in order when extracting text from HTML.
var contentSelectors = []string{"main", "article", "body"}

// LoadDocument reads the document behind ref. HTML files are reduced to the
// text of their main content.
func LoadDocument(ref core.DocumentRef) (*core.Document, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, err
	}

	text := string(data)
	switch strings.ToLower(filepath.Ext(ref.Path)) {
	case ".html", ".htm":
		text, err = htmlText(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ref.RelPath, err)
		}
	}
	text = strings.ToValidUTF8(text, "\uFFFD")

	return &core.Document{
		ID:        ref.ID,
		Path:      ref.Path,
		Filename:  filepath.Base(ref.Path),
		Text:      text,
		SizeBytes: int64(len(data)),
		Checksum:  core.IDFromContent(text),
	}, nil
}

// htmlText extracts readable text from an HTML page. Lines are trimmed and
// runs of blank lines are collapsed to one so paragraph breaks survive.
func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template").Remove()

	var content string
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}
	if content == "" {
		content = doc.Text()
	}

	var paragraphs []string
	var current []string
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
