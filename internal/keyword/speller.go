package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is a dictionary term close to a misspelled one.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
	Score     float64
}

// SpellChecker proposes did-you-mean corrections from an index's term dictionary.
// The dictionary is loaded lazily and reloaded after Invalidate.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu    sync.RWMutex
	terms []Term
	known map[string]struct{}
	valid bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores terms found in fewer than f documents.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a spell checker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached dictionary; the next lookup reloads it.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

func (s *SpellChecker) load() ([]Term, map[string]struct{}, error) {
	s.mu.RLock()
	if s.valid {
		terms, known := s.terms, s.known
		s.mu.RUnlock()
		return terms, known, nil
	}
	s.mu.RUnlock()

	terms, err := s.dictionary.Terms()
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		known[strings.ToLower(t.Text)] = struct{}{}
	}

	s.mu.Lock()
	s.terms, s.known, s.valid = terms, known, true
	s.mu.Unlock()
	return terms, known, nil
}

// Suggest returns dictionary terms within the edit distance of term, best first.
func (s *SpellChecker) Suggest(term string) ([]Suggestion, error) {
	terms, _, err := s.load()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	n := len([]rune(term))

	var out []Suggestion
	for _, t := range terms {
		cand := strings.ToLower(t.Text)
		if cand == term || t.Count < s.minFreq {
			continue
		}
		if diff := len([]rune(cand)) - n; diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := DamerauLevenshteinDistance(term, cand)
		if d > s.maxDistance {
			continue
		}
		out = append(out, Suggestion{
			Term:      t.Text,
			Distance:  d,
			Frequency: t.Count,
			Score:     float64(t.Count) / float64(d+1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out, nil
}

// Correct replaces every unknown term of text with its best suggestion.
// It reports whether anything changed.
func (s *SpellChecker) Correct(text string) (string, bool, error) {
	_, known, err := s.load()
	if err != nil {
		return "", false, err
	}
	words := tokenizeQuery(text)
	changed := false
	for i, w := range words {
		if _, ok := known[w]; ok {
			continue
		}
		sugg, err := s.Suggest(w)
		if err != nil {
			return "", false, err
		}
		if len(sugg) > 0 {
			words[i] = sugg[0].Term
			changed = true
		}
	}
	return strings.Join(words, " "), changed, nil
}

// tokenizeQuery splits text into lowercase terms.
func tokenizeQuery(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
