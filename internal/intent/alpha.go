package intent

import (
	"strings"
	"unicode"
)

const (
	// GenreAlpha смещает ранжирование к семантике, когда запрос называет жанр или формат.
	GenreAlpha = 0.4
	// MoodAlpha смещает ранжирование к вкусу, когда запрос описывает настроение.
	MoodAlpha = 0.85
)

// Причины выбора α.
const (
	ReasonGenre = "genre"
	ReasonMood  = "mood"
)

var genreTerms = toSet(
	"action", "adventure", "animation", "anime", "biography", "comedy", "crime", "documentary",
	"drama", "fantasy", "horror", "musical", "mystery", "noir", "romance", "sci-fi", "scifi",
	"science fiction", "thriller", "western", "war", "superhero", "sitcom", "heist", "slasher",
	"rock", "metal", "jazz", "blues", "hip-hop", "hip hop", "rap", "pop", "punk", "techno", "house",
	"edm", "folk", "country", "classical", "r&b", "soul", "reggae", "indie", "electronic", "ambient",
	"novel", "memoir", "poetry", "nonfiction", "non-fiction", "graphic novel", "manga", "essay",
	"album", "soundtrack", "series", "trilogy", "short story", "podcast",
)

var moodTerms = toSet(
	"sad", "happy", "melancholic", "melancholy", "joyful", "uplifting", "dark", "bleak", "gloomy",
	"cozy", "cosy", "calm", "peaceful", "serene", "intense", "angry", "anxious", "nostalgic",
	"dreamy", "hopeful", "hopeless", "lonely", "romantic", "bittersweet", "eerie", "haunting",
	"cheerful", "somber", "sombre", "tense", "moody", "wistful", "heartwarming", "heartbreaking",
	"depressing", "energetic", "mellow", "soothing", "brooding", "playful", "whimsical", "cathartic",
	"feel", "feeling", "feelings", "mood", "vibe", "vibes", "atmosphere", "atmospheric", "emotional",
)

func toSet(terms ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		m[t] = struct{}{}
	}
	return m
}

// SuggestAlpha классифицирует текст запроса и предлагает вес вкуса α.
// Только жанровые слова дают GenreAlpha, только слова настроения дают MoodAlpha.
// Если встречаются оба вида или ни одного, ok == false и α не переопределяется.
func SuggestAlpha(text string) (alpha float64, reason string, ok bool) {
	words := tokenize(text)

	var genre, mood bool
	for i, w := range words {
		if match(genreTerms, w) {
			genre = true
		}
		if match(moodTerms, w) {
			mood = true
		}
		if i+1 < len(words) && match(genreTerms, w+" "+words[i+1]) {
			genre = true
		}
	}

	switch {
	case genre && !mood:
		return GenreAlpha, ReasonGenre, true
	case mood && !genre:
		return MoodAlpha, ReasonMood, true
	default:
		return 0, "", false
	}
}

func match(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}

// tokenize разбивает текст на слова в нижнем регистре, сохраняя дефисы и «&» внутри слов.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '&'
	})
}
