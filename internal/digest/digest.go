// Package digest writes the daily analysis post from trending topics and
// the sampled history.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/llm"
	"github.com/TobiSchelling/TrendCrawler/internal/score"
	"github.com/TobiSchelling/TrendCrawler/internal/snapshot"
	"github.com/TobiSchelling/TrendCrawler/internal/temporal"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

const (
	defaultMaxTokens = 1500
	promptTopics     = 5
	promptHeadlines  = 3
	maxTags          = 5
)

const systemPrompt = `You are an analyst writing a daily briefing on international news coverage.
You compare how sources with different perspectives cover the same events and
relate today's stories to what was reported before.`

const digestPrompt = `Today is %s. %d articles were collected; these topics were covered by several independent sources:

%s

Leading keywords across the corpus: %s

Historical context, most recent first:

%s

Write an analysis post in markdown with the sections "## Overview", "## Coverage", "## Context" and "## What to Watch".
Refer to earlier coverage where it explains today's stories.

Respond with ONLY this JSON:
{
    "title": "Descriptive headline",
    "excerpt": "One sentence summary",
    "body": "The markdown body"
}`

// Store persists digests.
type Store interface {
	SaveDigest(d database.Digest) (int64, error)
}

// Input is everything a digest is written from.
type Input struct {
	Date          time.Time
	TotalArticles int
	Topics        []trending.TrendingTopic
	// Keywords are optional.
	Keywords []score.Keyword
	// Context is optional.
	Context *temporal.Context
}

// Result describes a written digest.
type Result struct {
	Title string
	Slug  string
	Body  string
	Path  string
	// Generated is true when the LLM wrote the body.
	Generated bool
}

type reply struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
}

// Writer composes digests and publishes them to the posts dir and store.
type Writer struct {
	provider  llm.Provider
	maxTokens int
	postsDir  string
	store     Store
}

// NewWriter creates a digest writer. provider and store may be nil.
func NewWriter(provider llm.Provider, maxTokens int, postsDir string, store Store) *Writer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Writer{provider: provider, maxTokens: maxTokens, postsDir: postsDir, store: store}
}

// Write composes the digest for in and publishes it.
func (w *Writer) Write(ctx context.Context, in Input) (*Result, error) {
	post, generated := w.compose(ctx, in)

	path, err := snapshot.WritePost(w.postsDir, post)
	if err != nil {
		return nil, err
	}

	if w.store != nil {
		_, err := w.store.SaveDigest(database.Digest{
			Day:          in.Date.Format(database.DayLayout),
			Slug:         post.Slug,
			Title:        post.Title,
			BodyMarkdown: post.Body,
		})
		if err != nil {
			return nil, fmt.Errorf("saving digest: %w", err)
		}
	}

	log.Printf("Digest written for %s: %s", in.Date.Format(database.DayLayout), post.Title)
	return &Result{Title: post.Title, Slug: post.Slug, Body: post.Body, Path: path, Generated: generated}, nil
}

func (w *Writer) compose(ctx context.Context, in Input) (snapshot.Post, bool) {
	post := snapshot.Post{Date: in.Date, Tags: tags(in.Topics)}

	if r, ok := w.generate(ctx, in); ok {
		post.Title = r.Title
		post.Excerpt = r.Excerpt
		post.Body = r.Body
		post.Slug = snapshot.Slugify(post.Title)
		return post, true
	}

	post.Title = fallbackTitle(in)
	post.Body = fallbackBody(in)
	post.Slug = snapshot.Slugify(post.Title)
	return post, false
}

func (w *Writer) generate(ctx context.Context, in Input) (reply, bool) {
	var r reply
	if w.provider == nil || len(in.Topics) == 0 {
		return r, false
	}

	responseText, err := w.provider.Generate(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    BuildPrompt(in),
		MaxTokens: w.maxTokens,
		JSON:      true,
	})
	if err != nil {
		log.Printf("Warning: digest generation failed: %v", err)
		return r, false
	}
	if err := llm.DecodeJSON(responseText, &r); err != nil {
		log.Printf("Warning: %v", err)
		return r, false
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	if r.Title == "" || r.Body == "" {
		log.Println("Warning: digest reply missing title or body")
		return r, false
	}
	return r, true
}

// BuildPrompt renders the user prompt for in.
func BuildPrompt(in Input) string {
	history := "No historical context available."
	if in.Context != nil {
		history = strings.TrimSpace(in.Context.Render())
	}
	return fmt.Sprintf(digestPrompt, in.Date.Format(database.DayLayout), in.TotalArticles, formatTopics(in.Topics), formatKeywords(in.Keywords), history)
}

func formatKeywords(kws []score.Keyword) string {
	if len(kws) == 0 {
		return "none"
	}
	parts := make([]string, len(kws))
	for i, k := range kws {
		parts[i] = fmt.Sprintf("%s (%s)", k.Term, k.Kind)
	}
	return strings.Join(parts, ", ")
}

func formatTopics(topics []trending.TrendingTopic) string {
	if len(topics) > promptTopics {
		topics = topics[:promptTopics]
	}
	var parts []string
	for i, t := range topics {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %q (%d sources)", i+1, t.Keyword, t.SourceCount)
		for j, a := range t.Articles {
			if j == promptHeadlines {
				break
			}
			fmt.Fprintf(&b, "\n   - [%s] %s", a.Source, a.Title)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

func tags(topics []trending.TrendingTopic) []string {
	var out []string
	for i, t := range topics {
		if i == maxTags {
			break
		}
		out = append(out, t.Keyword)
	}
	return out
}

func fallbackTitle(in Input) string {
	if len(in.Topics) == 0 {
		return "Daily Briefing " + in.Date.Format(database.DayLayout)
	}
	var kws []string
	for i, t := range in.Topics {
		if i == promptHeadlines {
			break
		}
		kws = append(kws, t.Keyword)
	}
	return "Trending: " + strings.Join(kws, ", ")
}

func fallbackBody(in Input) string {
	var sections []string

	if len(in.Topics) == 0 {
		sections = append(sections, fmt.Sprintf("## Overview\n\nNo story was corroborated by enough sources among %d articles.", in.TotalArticles))
	} else {
		sections = append(sections, fmt.Sprintf("## Overview\n\n%d topics were corroborated across %d articles.", len(in.Topics), in.TotalArticles))
	}

	for _, t := range in.Topics {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n\nCovered by %d sources.\n", t.Keyword, t.SourceCount)
		for _, a := range t.Articles {
			if a.Link != "" {
				fmt.Fprintf(&b, "\n- [%s](%s) (%s)", a.Title, a.Link, a.Source)
			} else {
				fmt.Fprintf(&b, "\n- %s (%s)", a.Title, a.Source)
			}
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}

	if in.Context != nil && in.Context.Summary.Days > 0 {
		s := in.Context.Summary
		sections = append(sections, fmt.Sprintf("## Context\n\nSampled %d of %d archived articles across %d days, with %d earlier digests.",
			s.SampledArticles, s.TotalArticles, s.Days, s.Digests))
	}

	return strings.Join(sections, "\n\n")
}
