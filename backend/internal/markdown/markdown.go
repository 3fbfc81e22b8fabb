// Package markdown renders the service's static documents to sanitized HTML.
package markdown

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithRendererOptions(html.WithUnsafe()),
		goldmark.WithExtensions(extension.Strikethrough, extension.Table, extension.Linkify),
	)

	p := bluemonday.UGCPolicy()
	p.AllowRelativeURLs(true)

	return &Renderer{md: md, policy: p}
}

// Render converts markdown to HTML. Raw HTML passes the parser and is
// cleaned by the sanitizer afterwards.
func (r *Renderer) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}

// DocCache holds the rendered form of one file together with the
// modification time it was rendered from.
type DocCache struct {
	path     string
	renderer *Renderer

	mu            sync.Mutex
	content       string
	sourceVersion time.Time
	loaded        bool
}

func NewDocCache(path string, renderer *Renderer) *DocCache {
	return &DocCache{path: path, renderer: renderer}
}

// Get returns the rendered document, re-rendering only when the file's
// modification time differs from the cached one.
func (c *DocCache) Get() (string, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return "", fmt.Errorf("failed to stat document: %w", err)
	}
	version := info.ModTime()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.sourceVersion.Equal(version) {
		return c.content, nil
	}

	source, err := os.ReadFile(c.path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	content, err := c.renderer.Render(source)
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}

	c.content = content
	c.sourceVersion = version
	c.loaded = true
	return content, nil
}

// SourceVersion is the modification time of the last rendered source.
func (c *DocCache) SourceVersion() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sourceVersion
}
