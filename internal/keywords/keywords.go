// Package keywords turns raw article text into normalized unigram and
// bigram tokens.
package keywords

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLength is the shortest word Tokenize keeps, in runes.
const MinTokenLength = 4

var (
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
	urlPattern    = regexp.MustCompile(`https?://\S+`)
	wwwPattern    = regexp.MustCompile(`www\.\S+`)
	entityPattern = regexp.MustCompile(`&[\p{L}\p{N}_]+;`)
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	yearPattern   = regexp.MustCompile(`^(19|20)[0-9]{2}$`)
)

// Tokenize lower-cases text, strips HTML tags, URLs and entities, and
// returns the words of at least MinTokenLength characters in order.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)
	text = tagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")
	text = wwwPattern.ReplaceAllString(text, " ")
	text = entityPattern.ReplaceAllString(text, " ")

	var tokens []string
	for _, w := range wordPattern.FindAllString(text, -1) {
		if utf8.RuneCountInString(w) >= MinTokenLength {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// IsYear reports whether token is a four-digit year between 1900 and 2099.
func IsYear(token string) bool {
	return yearPattern.MatchString(token)
}

// IsNumber reports whether token consists only of digits.
func IsNumber(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func numeric(token string) bool {
	return IsYear(token) || IsNumber(token)
}

// Unigrams returns the tokens of text that are neither stopwords, years
// nor numbers.
func Unigrams(text string) []string {
	return filterUnigrams(Tokenize(text))
}

func filterUnigrams(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if IsStopword(t) || numeric(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Bigrams joins adjacent tokens of text where neither is a bigram
// stopword, year or number.
func Bigrams(text string) []string {
	return pairTokens(Tokenize(text), IsBigramStopword)
}

func pairTokens(tokens []string, stop func(string) bool) []string {
	var out []string
	for i := 0; i+1 < len(tokens); i++ {
		w1, w2 := tokens[i], tokens[i+1]
		if stop(w1) || stop(w2) || numeric(w1) || numeric(w2) {
			continue
		}
		out = append(out, w1+" "+w2)
	}
	return out
}

// ExtractKeywords returns bigrams followed by unigrams for text. Both use
// the full stopword set.
func ExtractKeywords(text string) []string {
	tokens := Tokenize(text)
	bigrams := pairTokens(tokens, IsStopword)
	unigrams := filterUnigrams(tokens)
	if len(bigrams) == 0 && len(unigrams) == 0 {
		return nil
	}
	out := make([]string, 0, len(bigrams)+len(unigrams))
	out = append(out, bigrams...)
	return append(out, unigrams...)
}
