package cards

import (
	"strings"
	"unicode"
)

// onsets are consonant pairs that stay together at the start of a syllable.
var onsets = map[string]bool{
	"bl": true, "br": true, "ch": true, "cl": true, "cr": true, "dr": true,
	"fl": true, "fr": true, "gl": true, "gr": true, "ph": true, "pl": true,
	"pr": true, "sc": true, "sh": true, "sk": true, "sl": true, "sm": true,
	"sn": true, "sp": true, "st": true, "sw": true, "th": true, "tr": true,
	"wh": true, "wr": true,
}

// codas are consonant pairs that stay together at the end of a syllable.
var codas = map[string]bool{"ck": true, "ng": true}

// Syllabify splits an English word into approximate syllables using vowel
// groups and consonant-cluster rules. Joining the result always yields the
// input word. Words it cannot split come back as a single syllable.
func Syllabify(word string) []string {
	rs := []rune(word)
	if len(rs) <= 3 {
		return []string{word}
	}
	lower := make([]rune, len(rs))
	for i, r := range rs {
		lower[i] = unicode.ToLower(r)
	}

	nuclei := vowelGroups(lower)
	if len(nuclei) > 1 && silentE(lower, nuclei) {
		nuclei = nuclei[:len(nuclei)-1]
	}
	if len(nuclei) < 2 {
		return []string{word}
	}

	var cuts []int
	for i := 0; i+1 < len(nuclei); i++ {
		from, to := nuclei[i][1], nuclei[i+1][0] // consonants in [from, to)
		cuts = append(cuts, cut(lower, from, to))
	}

	out := make([]string, 0, len(cuts)+1)
	prev := 0
	for _, c := range cuts {
		if c <= prev || c >= len(rs) {
			continue
		}
		out = append(out, string(rs[prev:c]))
		prev = c
	}
	return append(out, string(rs[prev:]))
}

// vowelGroups returns [start, end) ranges of maximal vowel runs. A "y" counts
// as a vowel unless it opens the word or follows a vowel.
func vowelGroups(w []rune) [][2]int {
	var groups [][2]int
	for i := 0; i < len(w); {
		if !isVowel(w, i) {
			i++
			continue
		}
		j := i + 1
		for j < len(w) && isVowel(w, j) && w[j] != 'y' {
			j++
		}
		groups = append(groups, [2]int{i, j})
		i = j
	}
	return groups
}

func isVowel(w []rune, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	case 'y':
		return i > 0 && unicode.IsLetter(w[i-1]) && !strings.ContainsRune("aeiou", w[i-1])
	}
	return false
}

// silentE reports a final lone "e" after a consonant, except the
// consonant+"le" ending which carries its own syllable.
func silentE(w []rune, nuclei [][2]int) bool {
	last := nuclei[len(nuclei)-1]
	n := len(w)
	if last[0] != n-1 || last[1] != n || w[n-1] != 'e' {
		return false
	}
	if n >= 3 && w[n-2] == 'l' && !isVowel(w, n-3) {
		return false
	}
	return !isVowel(w, n-2)
}

// cut picks the split index inside the consonant cluster w[from:to].
func cut(w []rune, from, to int) int {
	switch k := to - from; {
	case k <= 1:
		if k == 1 && w[from] == 'x' {
			return to
		}
		return from
	case k == 2:
		pair := string(w[from:to])
		if codas[pair] {
			return to
		}
		if onsets[pair] && pair != "st" && pair != "sp" && pair != "sc" && pair != "sk" {
			return from
		}
		return from + 1
	default:
		if tail := string(w[to-2 : to]); onsets[tail] {
			return to - 2
		}
		return from + 1
	}
}
