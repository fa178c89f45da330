package temporal

import (
	"fmt"
	"sort"
	"strings"
)

// Trigger is a word whose entries skew measurably above or below the
// window's baseline mood.
type Trigger struct {
	Word    string  `json:"word"`
	Effect  float64 `json:"effect"`
	Entries int     `json:"entries"`
}

// Topic is a frequent word with no measurable mood effect.
type Topic struct {
	Word    string `json:"word"`
	Entries int    `json:"entries"`
}

// TriggersResult is the emotional trigger report for one analysis window.
type TriggersResult struct {
	Status           Status    `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	EntriesAnalyzed  int       `json:"entries_analyzed"`
	TokensEvaluated  int       `json:"tokens_evaluated"`
	PositiveTriggers []Trigger `json:"positive_triggers,omitempty"`
	NegativeTriggers []Trigger `json:"negative_triggers,omitempty"`
	NeutralTopics    []Topic   `json:"neutral_topics,omitempty"`
}

// minTriggerTokenLen is the shortest word considered for mining.
const minTriggerTokenLen = 3

// stopWords are excluded from trigger mining: function words, auxiliaries,
// and journal filler that would otherwise dominate every report.
var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "nor": true,
	"yet": true, "was": true, "were": true, "are": true, "been": true,
	"being": true, "has": true, "had": true, "have": true, "having": true,
	"this": true, "that": true, "these": true, "those": true, "they": true,
	"them": true, "then": true, "than": true, "their": true, "theirs": true,
	"there": true, "here": true, "when": true, "where": true, "which": true,
	"while": true, "what": true, "who": true, "whom": true, "whose": true,
	"why": true, "how": true, "all": true, "any": true, "both": true,
	"each": true, "few": true, "more": true, "most": true, "other": true,
	"others": true, "some": true, "such": true, "only": true, "own": true,
	"same": true, "too": true, "very": true, "can": true, "could": true,
	"will": true, "would": true, "shall": true, "should": true, "may": true,
	"might": true, "must": true, "just": true, "dont": true, "didnt": true,
	"cant": true, "wont": true, "isnt": true, "wasnt": true, "werent": true,
	"arent": true, "couldnt": true, "wouldnt": true, "shouldnt": true,
	"about": true, "above": true, "after": true, "again": true,
	"against": true, "because": true, "before": true, "below": true,
	"between": true, "during": true, "into": true, "once": true,
	"over": true, "through": true, "under": true, "until": true,
	"upon": true, "with": true, "without": true, "you": true, "your": true,
	"yours": true, "our": true, "ours": true, "his": true, "her": true,
	"hers": true, "him": true, "she": true, "its": true, "also": true,
	"got": true, "get": true, "getting": true, "went": true, "going": true,
	"gone": true, "come": true, "came": true, "really": true, "still": true,
	"even": true, "much": true, "many": true, "make": true, "made": true,
	"making": true, "take": true, "took": true, "taking": true,
	"like": true, "liked": true, "one": true, "two": true, "three": true,
	"way": true, "back": true, "see": true, "saw": true, "seen": true,
	"know": true, "knew": true, "known": true, "think": true,
	"thought": true, "thing": true, "things": true, "lot": true,
	"bit": true, "little": true, "day": true, "days": true, "week": true,
	"weeks": true, "today": true, "yesterday": true, "tomorrow": true,
	"time": true, "times": true, "felt": true, "feel": true,
	"feeling": true, "feelings": true, "out": true, "off": true,
	"not": true, "never": true, "now": true,
}

// mineTriggers finds words whose presence shifts an entry's mood relative
// to the window baseline. A word must appear in enough distinct
// emotion-bearing entries before it is evaluated at all.
func mineTriggers(entries []Entry, cfg Config) *TriggersResult {
	cfg = cfg.withDefaults()
	scored := emotionBearing(entries)

	if len(scored) < cfg.MinEmotionEntries {
		return &TriggersResult{
			Status:          StatusInsufficientData,
			Reason:          fmt.Sprintf("need at least %d entries with emotion scores, have %d", cfg.MinEmotionEntries, len(scored)),
			EntriesAnalyzed: len(scored),
		}
	}

	composites := make([]float64, len(scored))
	var baselineSum float64
	for i, e := range scored {
		composites[i] = e.Emotions.Composite()
		baselineSum += composites[i]
	}
	baseline := baselineSum / float64(len(scored))

	// token -> indexes of distinct entries containing it
	tokenEntries := make(map[string][]int)
	for i, e := range scored {
		for tok := range triggerTokens(e.Content) {
			tokenEntries[tok] = append(tokenEntries[tok], i)
		}
	}

	type candidate struct {
		word    string
		effect  float64
		entries int
	}
	var cands []candidate
	for tok, idxs := range tokenEntries {
		if len(idxs) < cfg.MinTokenEntries {
			continue
		}
		var sum float64
		for _, i := range idxs {
			sum += composites[i]
		}
		cands = append(cands, candidate{
			word:    tok,
			effect:  sum/float64(len(idxs)) - baseline,
			entries: len(idxs),
		})
	}

	res := &TriggersResult{
		Status:          StatusReady,
		EntriesAnalyzed: len(scored),
		TokensEvaluated: len(cands),
	}
	var neutral []Topic
	for _, c := range cands {
		switch {
		case c.effect >= cfg.TriggerEffectThreshold:
			res.PositiveTriggers = append(res.PositiveTriggers, Trigger{c.word, round3(c.effect), c.entries})
		case c.effect <= -cfg.TriggerEffectThreshold:
			res.NegativeTriggers = append(res.NegativeTriggers, Trigger{c.word, round3(c.effect), c.entries})
		default:
			neutral = append(neutral, Topic{c.word, c.entries})
		}
	}

	sort.Slice(res.PositiveTriggers, func(i, j int) bool {
		a, b := res.PositiveTriggers[i], res.PositiveTriggers[j]
		if a.Effect != b.Effect {
			return a.Effect > b.Effect
		}
		if a.Entries != b.Entries {
			return a.Entries > b.Entries
		}
		return a.Word < b.Word
	})
	sort.Slice(res.NegativeTriggers, func(i, j int) bool {
		a, b := res.NegativeTriggers[i], res.NegativeTriggers[j]
		if a.Effect != b.Effect {
			return a.Effect < b.Effect
		}
		if a.Entries != b.Entries {
			return a.Entries > b.Entries
		}
		return a.Word < b.Word
	})
	sort.Slice(neutral, func(i, j int) bool {
		if neutral[i].Entries != neutral[j].Entries {
			return neutral[i].Entries > neutral[j].Entries
		}
		return neutral[i].Word < neutral[j].Word
	})
	if len(neutral) > cfg.NeutralTopN {
		neutral = neutral[:cfg.NeutralTopN]
	}
	res.NeutralTopics = neutral

	if len(res.PositiveTriggers) == 0 && len(res.NegativeTriggers) == 0 && len(res.NeutralTopics) == 0 {
		res.Status = StatusInsufficientData
		res.Reason = fmt.Sprintf("no word appears in at least %d entries", cfg.MinTokenEntries)
	}
	return res
}

// triggerTokens returns the distinct mineable words in content: lowercase,
// apostrophes swallowed, at least three characters, stop words dropped.
func triggerTokens(content string) map[string]bool {
	content = strings.ToLower(content)
	tokens := make(map[string]bool)
	var current strings.Builder
	flush := func() {
		if current.Len() >= minTriggerTokenLen {
			tok := current.String()
			if !stopWords[tok] {
				tokens[tok] = true
			}
		}
		current.Reset()
	}
	for _, r := range content {
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
	return tokens
}
