package snapshot

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	frontMatterDelim = "---"
	maxSlugLength    = 60
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FrontMatter is the YAML header of a post.
type FrontMatter struct {
	Layout  string   `yaml:"layout"`
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags,omitempty"`
	Excerpt string   `yaml:"excerpt,omitempty"`
}

// Post is a published digest on disk.
type Post struct {
	Date    time.Time
	Slug    string
	Title   string
	Tags    []string
	Excerpt string
	Body    string
}

// Slugify turns a title into a file-name friendly slug.
func Slugify(title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "digest"
	}
	return slug
}

// PostFileName returns the YYYY-MM-DD-slug.md file name of p.
func PostFileName(p Post) string {
	return p.Date.Format(dayLayout) + "-" + p.Slug + ".md"
}

// WritePost stores p under dir with YAML front matter and returns the path.
func WritePost(dir string, p Post) (string, error) {
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	fm := FrontMatter{
		Layout:  "post",
		Title:   p.Title,
		Date:    p.Date.Format(dayLayout),
		Tags:    p.Tags,
		Excerpt: p.Excerpt,
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(header)
	buf.WriteString(frontMatterDelim + "\n\n")
	buf.WriteString(strings.TrimSpace(p.Body))
	buf.WriteString("\n")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating posts dir: %w", err)
	}
	path := filepath.Join(dir, PostFileName(p))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing post: %w", err)
	}
	return path, nil
}

// ReadPost parses a post file. The date and slug come from the file name;
// a post without front matter is all body and takes its slug as title.
func ReadPost(path string) (*Post, error) {
	name := filepath.Base(path)
	date, ok := datePrefix(name)
	if !ok {
		return nil, fmt.Errorf("post %s: file name does not start with a date", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading post: %w", err)
	}

	slug := strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name))[len(dayLayout):], "-")
	p := &Post{Date: date, Slug: slug, Title: slug}

	fm, body, err := splitFrontMatter(string(data))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", name, err)
	}
	if fm.Title != "" {
		p.Title = fm.Title
	}
	p.Tags = fm.Tags
	p.Excerpt = fm.Excerpt
	p.Body = strings.TrimSpace(body)
	return p, nil
}

func splitFrontMatter(content string) (FrontMatter, string, error) {
	var fm FrontMatter
	if !strings.HasPrefix(content, frontMatterDelim+"\n") {
		return fm, content, nil
	}
	rest := content[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return fm, content, nil
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, "", fmt.Errorf("parsing front matter: %w", err)
	}
	body := rest[end+len(frontMatterDelim)+1:]
	return fm, strings.TrimPrefix(body, "\n"), nil
}

// LoadPosts reads every dated markdown post in dir, newest first. A missing
// directory yields no posts; unreadable posts are logged and skipped.
func LoadPosts(dir string) ([]Post, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var posts []Post
	for _, path := range paths {
		if _, ok := datePrefix(filepath.Base(path)); !ok {
			continue
		}
		p, err := ReadPost(path)
		if err != nil {
			log.Printf("Warning: skipping post: %v", err)
			continue
		}
		posts = append(posts, *p)
	}
	return posts, nil
}
