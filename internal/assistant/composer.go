package assistant

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nfrund/chatgate/internal/catalog"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// maxListed is how many songs and how many albums a reply names.
	maxListed = 3
	// maxQuoted bounds the echo of the user's text in a reply.
	maxQuoted = 60
)

// Canned replies.
const (
	ReplyGreeting       = "Hello! Tell me an artist, a song or an album and I will look it up in the catalog."
	ReplyThanks         = "You're welcome! Anything else you would like to listen to?"
	ReplyHelp           = "I search the music catalog. Mention an artist, a song title or an album and I will share what I find."
	ReplyRecommendation = "I would love to recommend something. Give me an artist or a genre you like and I will search the catalog."
)

// rule maps trigger words to a canned reply.
type rule struct {
	words []string
	reply string
}

var rules = []rule{
	{words: []string{"hello", "hi", "hey", "hola", "bonjour", "salut"}, reply: ReplyGreeting},
	{words: []string{"thanks", "thank", "thx", "merci", "gracias"}, reply: ReplyThanks},
	{words: []string{"help", "aide", "ayuda"}, reply: ReplyHelp},
	{words: []string{"recommend", "recommendation", "suggest", "suggestion"}, reply: ReplyRecommendation},
}

// Composer turns a user message and catalog matches into the assistant's
// reply. It is deterministic and always returns a non-empty text.
type Composer struct{}

// Reply composes the answer to text. Catalog matches take precedence over the
// keyword rules; with neither the reply is a generic fallback.
func (Composer) Reply(text string, results catalog.Results) string {
	if !results.Empty() {
		return formatResults(text, results)
	}

	words := tokenize(text)
	for _, r := range rules {
		if lo.Some(words, r.words) {
			return r.reply
		}
	}
	return fallback(text)
}

func formatResults(text string, results catalog.Results) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is what I found for %q:", quote(text))

	if len(results.Songs) > 0 {
		songs := lo.Map(lo.Slice(results.Songs, 0, maxListed), func(s catalog.Song, _ int) string {
			return fmt.Sprintf("%s by %s", s.Title, s.Artist)
		})
		b.WriteString("\nSongs: ")
		b.WriteString(strings.Join(songs, "; "))
	}
	if len(results.Albums) > 0 {
		albums := lo.Map(lo.Slice(results.Albums, 0, maxListed), func(a catalog.Album, _ int) string {
			if a.Year > 0 {
				return fmt.Sprintf("%s by %s (%d)", a.Title, a.Artist, a.Year)
			}
			return fmt.Sprintf("%s by %s", a.Title, a.Artist)
		})
		b.WriteString("\nAlbums: ")
		b.WriteString(strings.Join(albums, "; "))
	}
	return b.String()
}

func fallback(text string) string {
	q := quote(text)
	if q == "" {
		return "I did not catch that. Try an artist, a song or an album name."
	}
	return fmt.Sprintf("I could not find anything for %q in the catalog. Try an artist, a song or an album name.", q)
}

// quote trims text for echoing it back.
func quote(text string) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) <= maxQuoted {
		return string(r)
	}
	return string(r[:maxQuoted]) + "..."
}

// tokenize splits text into case folded words without diacritics, so "Héllo"
// and "HELLO" both yield "hello".
func tokenize(text string) []string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	normalized, _, err := transform.String(t, text)
	if err != nil {
		normalized = strings.ToLower(text)
	}
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
