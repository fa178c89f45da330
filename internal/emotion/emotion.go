// Package emotion defines the fixed emotion vocabulary used throughout the
// journal and a small lexicon-based detector for scoring entry text.
//
// Every stored mood is one of six tags. Joy and love sit on the positive
// axis, sadness, anger and fear on the negative axis, and surprise belongs
// to neither. Scores are probabilities in [0, 1] and are sanitized at the
// store boundary so downstream analysis never sees an unknown tag or an
// out-of-range value.
package emotion

import "sort"

// Tag is one of the six recognized emotions.
type Tag string

const (
	Joy      Tag = "joy"
	Love     Tag = "love"
	Surprise Tag = "surprise"
	Sadness  Tag = "sadness"
	Anger    Tag = "anger"
	Fear     Tag = "fear"
)

// All lists every recognized tag in stable order.
var All = []Tag{Joy, Love, Surprise, Sadness, Anger, Fear}

var positiveTags = map[Tag]bool{Joy: true, Love: true}
var negativeTags = map[Tag]bool{Sadness: true, Anger: true, Fear: true}

// Valid reports whether t is one of the recognized tags.
func Valid(t Tag) bool {
	return positiveTags[t] || negativeTags[t] || t == Surprise
}

// ParseTag converts a raw string to a Tag, reporting whether it is recognized.
func ParseTag(s string) (Tag, bool) {
	t := Tag(s)
	return t, Valid(t)
}

// Positive reports whether the tag sits on the positive axis.
func (t Tag) Positive() bool { return positiveTags[t] }

// Negative reports whether the tag sits on the negative axis.
func (t Tag) Negative() bool { return negativeTags[t] }

// Scores holds per-emotion scores for a single entry. Absent tags mean the
// emotion was not observed, which is different from a score of zero.
type Scores map[Tag]float64

// Sanitize returns a copy with unknown tags dropped and scores clamped to
// [0, 1]. A nil receiver yields nil.
func (s Scores) Sanitize() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	for tag, v := range s {
		if !Valid(tag) {
			continue
		}
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		out[tag] = v
	}
	return out
}

// Composite collapses the scores to a single positivity value: the mean of
// the positive-axis scores present minus the mean of the negative-axis
// scores present. Surprise does not participate. An axis with no observed
// tags contributes zero, so an empty map yields zero.
func (s Scores) Composite() float64 {
	var posSum, negSum float64
	var posN, negN int
	for tag, v := range s {
		switch {
		case positiveTags[tag]:
			posSum += v
			posN++
		case negativeTags[tag]:
			negSum += v
			negN++
		}
	}
	var pos, neg float64
	if posN > 0 {
		pos = posSum / float64(posN)
	}
	if negN > 0 {
		neg = negSum / float64(negN)
	}
	return pos - neg
}

// Dominant returns the highest-scoring tag. Ties resolve alphabetically so
// the result is stable. The second return is false when no tags are present.
func (s Scores) Dominant() (Tag, bool) {
	if len(s) == 0 {
		return "", false
	}
	tags := make([]Tag, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	best := tags[0]
	for _, t := range tags[1:] {
		if s[t] > s[best] {
			best = t
		}
	}
	return best, true
}
