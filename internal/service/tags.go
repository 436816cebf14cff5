package service

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/set-night/captionbot/internal/config"
)

var (
	stopwords = lo.Keyify(config.Stopwords)

	// Punctuation becomes a space so neighbouring words stay apart.
	punctuationReplacer = strings.NewReplacer(
		".", " ", ",", " ", "!", " ", "?", " ", ";", " ", ":", " ",
		`"`, " ", "'", " ", "(", " ", ")", " ", "[", " ", "]", " ", "{", " ", "}", " ",
	)
)

// ExtractTags derives up to config.MaxTags keywords from a caption in
// first-seen order. It never returns nil.
func ExtractTags(caption string) []string {
	text := punctuationReplacer.Replace(strings.ToLower(caption))

	words := lo.Filter(strings.Fields(text), func(word string, _ int) bool {
		_, stop := stopwords[word]
		return !stop && utf8.RuneCountInString(word) > 2
	})

	tags := lo.Uniq(words)
	if len(tags) > config.MaxTags {
		tags = tags[:config.MaxTags]
	}
	return tags
}
