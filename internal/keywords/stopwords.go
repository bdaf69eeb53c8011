package keywords

// stopwords removes generic English words and domain-generic news terms
// (outlet names, political nouns) from unigram scoring.
var stopwords = toSet(
	"this", "that", "with", "from", "have", "been", "will", "said", "says",
	"more", "about", "after", "their", "which", "when", "where", "there",
	"what", "some", "than", "into", "very", "just", "over", "also", "only",
	"many", "most", "such", "other", "would", "could", "should", "these",
	"those", "them", "then", "both", "each", "does", "were", "make", "made",
	"russia", "russian", "moscow", "kremlin", "media", "tass", "reported",
	"reports", "according", "statement", "official", "officials", "news",
	"world", "national", "international", "chief", "head", "minister",
	"president", "government", "country", "state", "told", "plan",
	"plans", "year", "years", "talks", "meeting", "held", "announced",
	"military", "report", "full", "political", "economic", "social",
	"foreign", "domestic", "federal", "regional", "local", "global",
	"article", "articles", "story", "stories", "read", "preview", "https",
	"http", "link", "click", "here", "view", "watch", "video", "photo",
	"image", "source", "sources", "details", "information", "update",
	"updates", "breaking", "latest", "continue", "reading", "part",
)

// bigramStopwords is deliberately smaller: a meaningless bigram rarely
// repeats across independent sources, so the df cutoff removes it.
var bigramStopwords = toSet(
	"this", "that", "with", "from", "have", "been", "will", "said", "says",
	"more", "about", "after", "their", "which", "when", "where", "there",
	"russia", "russian", "moscow", "kremlin", "media", "tass", "reported",
	"military", "report", "political", "official",
	"article", "articles", "story", "stories", "read", "preview", "https",
	"http", "link", "click", "here", "view", "watch", "full", "continue",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopword reports whether token is dropped from unigram scoring.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// IsBigramStopword reports whether token breaks a bigram.
func IsBigramStopword(token string) bool {
	_, ok := bigramStopwords[token]
	return ok
}
