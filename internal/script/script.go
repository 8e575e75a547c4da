// Package script turns a set of news articles into a spoken podcast script.
package script

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"briefcaster/internal/models"
)

const (
	// PromptArticleLimit caps how many articles are listed in the prompt.
	PromptArticleLimit = 10
	DefaultMaxTokens   = 2000
	DefaultShowName    = "Briefcaster"
	noSummary          = "No summary"
)

// ErrEmptyScript is returned when the text generator produced no usable content.
var ErrEmptyScript = errors.New("text generator returned no content")

// TextGenerator completes a prompt using an external language model.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("prompt").Parse(promptText))

type promptArticle struct {
	Title   string
	Summary string
}

// BuildPrompt renders the script prompt from the first PromptArticleLimit articles.
func BuildPrompt(showName string, articles []models.Article) (string, error) {
	if len(articles) > PromptArticleLimit {
		articles = articles[:PromptArticleLimit]
	}
	data := struct {
		ShowName string
		Articles []promptArticle
	}{ShowName: showName}
	for _, a := range articles {
		summary := noSummary
		if a.SummaryText != nil && strings.TrimSpace(*a.SummaryText) != "" {
			summary = strings.TrimSpace(*a.SummaryText)
		}
		data.Articles = append(data.Articles, promptArticle{Title: a.Title, Summary: summary})
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// Generator writes scripts with a TextGenerator.
type Generator struct {
	text        TextGenerator
	showName    string
	maxTokens   int
	temperature float32
}

type Option func(*Generator)

func WithShowName(name string) Option {
	return func(g *Generator) { g.showName = name }
}

func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

func NewGenerator(text TextGenerator, opts ...Option) *Generator {
	g := &Generator{text: text, showName: DefaultShowName, maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the trimmed script for articles.
func (g *Generator) Generate(ctx context.Context, articles []models.Article) (string, error) {
	prompt, err := BuildPrompt(g.showName, articles)
	if err != nil {
		return "", err
	}
	out, err := g.text.Complete(ctx, prompt, g.maxTokens, g.temperature)
	if err != nil {
		return "", fmt.Errorf("complete prompt: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyScript
	}
	return out, nil
}
