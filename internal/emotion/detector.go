package emotion

import "strings"

// lexicon maps each tag to the words that signal it. Words are matched
// whole, lowercase, with apostrophes stripped.
var lexicon = map[Tag][]string{
	Joy: {
		"happy", "happiness", "joy", "joyful", "glad", "great", "awesome",
		"amazing", "wonderful", "excited", "exciting", "fun", "laughed",
		"laughing", "smile", "smiled", "smiling", "delighted", "fantastic",
		"enjoyed", "enjoying", "proud", "cheerful", "thrilled", "celebrated",
		"relaxing", "peaceful", "beautiful", "energized", "accomplished",
	},
	Love: {
		"love", "loved", "loving", "adore", "adored", "cherish", "warmth",
		"affection", "grateful", "gratitude", "thankful", "appreciate",
		"appreciated", "caring", "tender", "sweet", "close", "connected",
		"hug", "hugged", "missed",
	},
	Surprise: {
		"surprised", "surprising", "surprise", "unexpected", "unexpectedly",
		"suddenly", "shocked", "shocking", "astonished", "amazed", "stunned",
		"wow", "unbelievable", "random",
	},
	Sadness: {
		"sad", "sadness", "unhappy", "depressed", "depressing", "lonely",
		"alone", "miserable", "crying", "cried", "tears", "grief",
		"heartbroken", "hopeless", "empty", "gloomy", "hurt", "numb",
		"disappointed", "disappointing", "exhausted", "drained", "tired",
		"regret",
	},
	Anger: {
		"angry", "anger", "mad", "furious", "rage", "annoyed", "annoying",
		"frustrated", "frustrating", "frustration", "irritated", "irritating",
		"hate", "hated", "resent", "bitter", "outraged", "unfair", "argued",
		"argument",
	},
	Fear: {
		"afraid", "fear", "scared", "scary", "anxious", "anxiety", "worried",
		"worry", "worrying", "nervous", "terrified", "dread", "dreading",
		"panic", "panicked", "stress", "stressed", "stressful", "overwhelmed",
		"uneasy", "tense",
	},
}

// wordTag is the reverse index built from lexicon.
var wordTag = func() map[string]Tag {
	m := make(map[string]Tag)
	for tag, words := range lexicon {
		for _, w := range words {
			m[w] = tag
		}
	}
	return m
}()

// negations flip or mute an emotion word when they appear just before it.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true,
	"dont": true, "didnt": true, "cant": true, "couldnt": true,
	"wont": true, "wouldnt": true, "isnt": true, "wasnt": true,
	"arent": true, "werent": true, "hardly": true, "barely": true,
	"without": true,
}

// negationWindow is how many preceding words a negation reaches over.
const negationWindow = 2

// Detect scores content against the emotion lexicon. Each hit counts toward
// its tag unless a negation appears within the preceding window; per-tag
// counts saturate toward 1 so a single strong word does not read as
// certainty. Content with no lexicon hits yields an empty map.
func Detect(content string) Scores {
	words := splitWords(content)
	counts := make(map[Tag]int)
	for i, w := range words {
		tag, ok := wordTag[w]
		if !ok {
			continue
		}
		if negatedAt(words, i) {
			continue
		}
		counts[tag]++
	}

	scores := make(Scores, len(counts))
	for tag, c := range counts {
		scores[tag] = float64(c) / (float64(c) + 2)
	}
	return scores
}

func negatedAt(words []string, i int) bool {
	lo := i - negationWindow
	if lo < 0 {
		lo = 0
	}
	for j := lo; j < i; j++ {
		if negations[words[j]] {
			return true
		}
	}
	return false
}

// splitWords lowercases text and splits it into words, dropping punctuation.
// Apostrophes are stripped in place so "don't" becomes "dont".
func splitWords(text string) []string {
	text = strings.ToLower(text)
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 1 {
			words = append(words, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			current.WriteRune(r)
		case r == '\'' || r == '’':
			// swallow apostrophes inside words
		default:
			flush()
		}
	}
	flush()
	return words
}
