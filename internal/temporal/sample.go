package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
)

// DefaultDigestChars is the digest length kept at a sample rate of 1.
const DefaultDigestChars = 3000

// DayCorpus is one archived day of deduplicated articles.
type DayCorpus struct {
	Date     time.Time         `json:"date"`
	Articles []article.Article `json:"articles"`
}

// Digest is a published analysis post.
type Digest struct {
	Date  time.Time `json:"date"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
}

// Archive is the history Sample draws from.
type Archive struct {
	Days    []DayCorpus
	Digests []Digest
}

// DaySample is the stride sample of one archived day.
type DaySample struct {
	Date     time.Time         `json:"date"`
	Total    int               `json:"total"`
	Articles []article.Article `json:"articles"`
}

// BucketSample is everything sampled for one bucket.
type BucketSample struct {
	Bucket
	Window
	Days    []DaySample `json:"days"`
	Digests []Digest    `json:"digests"`
}

// Summary totals a Context.
type Summary struct {
	Days            int `json:"days"`
	TotalArticles   int `json:"total_articles"`
	SampledArticles int `json:"sampled_articles"`
	Digests         int `json:"digests"`
}

// Context is the recency-weighted history handed to a prompt builder.
type Context struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Buckets     []BucketSample `json:"buckets"`
	Summary     Summary        `json:"summary"`
}

type options struct {
	digestChars int
}

// Option configures Sample.
type Option func(*options)

// WithDigestChars sets the digest length kept at a sample rate of 1.
func WithDigestChars(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.digestChars = n
		}
	}
}

// Sample distributes archive into buckets relative to now. Days are
// stride sampled and ordered oldest first; digests are newest first,
// shortened in proportion to the bucket's sample rate. Buckets without
// archived data are empty.
func Sample(archive Archive, now time.Time, buckets []Bucket, opts ...Option) (*Context, error) {
	if err := ValidateBuckets(buckets); err != nil {
		return nil, fmt.Errorf("sampling temporal context: %w", err)
	}
	o := options{digestChars: DefaultDigestChars}
	for _, opt := range opts {
		opt(&o)
	}

	days := append([]DayCorpus(nil), archive.Days...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	digests := append([]Digest(nil), archive.Digests...)
	sort.SliceStable(digests, func(i, j int) bool { return digests[i].Date.After(digests[j].Date) })

	ctx := &Context{GeneratedAt: now}
	for i, w := range Range(now, buckets) {
		b := buckets[i]
		bs := BucketSample{Bucket: b, Window: w, Days: []DaySample{}, Digests: []Digest{}}

		for _, day := range days {
			if !w.Contains(day.Date) {
				continue
			}
			sampled := StrideSample(day.Articles, b.SampleRate, b.MaxItems)
			if sampled == nil {
				sampled = []article.Article{}
			}
			bs.Days = append(bs.Days, DaySample{Date: day.Date, Total: len(day.Articles), Articles: sampled})
			ctx.Summary.Days++
			ctx.Summary.TotalArticles += len(day.Articles)
			ctx.Summary.SampledArticles += len(sampled)
		}

		limit := TargetCount(o.digestChars, b.SampleRate, 0)
		for _, d := range digests {
			if !w.Contains(d.Date) {
				continue
			}
			if b.MaxItems > 0 && len(bs.Digests) >= b.MaxItems {
				break
			}
			d.Body = article.Truncate(d.Body, limit)
			bs.Digests = append(bs.Digests, d)
		}
		ctx.Summary.Digests += len(bs.Digests)

		ctx.Buckets = append(ctx.Buckets, bs)
	}
	return ctx, nil
}
