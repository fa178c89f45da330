// Package patterns extracts project and media mentions from entry text
// using trigger-phrase matching. Extraction is deterministic: the same text
// always yields the same mentions in the same order.
package patterns

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLen caps extracted names so a run-on sentence cannot become one.
const maxNameLen = 40

// ProjectMention is one project reference found in entry text. Name is
// canonical: lowercased, trimmed, inner whitespace collapsed, so the same
// project groups together across entries.
type ProjectMention struct {
	Name string
	Type string // "creative", "technical", "learning", "personal"
}

// MediaMention is one media reference found in entry text. Title keeps its
// original casing.
type MediaMention struct {
	Title string
	Type  string // "watching", "reading", "playing", "listening"
}

// nameBody matches the free-text name after a trigger phrase, stopping at
// punctuation, a conjunction, or end of text.
const nameBody = `([A-Za-z][A-Za-z0-9' -]{1,59}?)(?:[.,;:!?\n]|\s+(?:and|but|so|which|that|because|while|when|after|before|again|since|though|today|yesterday|tonight|last|on|at|in|with)\b|$)`

var projectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bworking on (?:my |the |a |an )?` + nameBody),
	regexp.MustCompile(`(?i)\bprogress on (?:my |the |a |an )?` + nameBody),
	regexp.MustCompile(`(?i)\bmy ([A-Za-z][A-Za-z0-9' -]{1,59}?) project\b`),
	regexp.MustCompile(`(?i)\b(?:started|starting|restarted|resumed|finished|finishing) (?:work on )?(?:my |the |a |an )?` + nameBody),
	regexp.MustCompile(`(?i)\b(?:building|writing|designing|composing|painting|recording|coding) (?:my |the |a |an )?` + nameBody),
}

var mediaPatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?i)\b(?:watched|watching|rewatched|rewatching|binged|binging)\s+` + nameBody), "watching"},
	{regexp.MustCompile(`(?i)\b(?:reading|read)\s+` + nameBody), "reading"},
	{regexp.MustCompile(`(?i)\b(?:played|playing)\s+(?:some\s+)?` + nameBody), "playing"},
	{regexp.MustCompile(`(?i)\blisten(?:ed|ing)\s+to\s+(?:some\s+|the\s+)?` + nameBody), "listening"},
}

// technical/creative/learning keyword sets used to type a project from its
// name. Anything unmatched is "personal".
var projectTypeWords = map[string][]string{
	"technical": {
		"app", "api", "site", "website", "server", "backend", "frontend",
		"bot", "script", "tool", "plugin", "database", "code", "homelab",
	},
	"creative": {
		"novel", "story", "book", "song", "album", "track", "painting",
		"drawing", "comic", "film", "video", "poem", "blog", "zine",
		"sculpture", "quilt", "mural",
	},
	"learning": {
		"course", "class", "language", "spanish", "french", "japanese",
		"piano", "guitar", "violin", "certification", "degree", "thesis",
	},
}

// mediaVerbPrefixes keep phrases like "started reading Dune" out of the
// project extractor; the media extractor owns those.
var mediaVerbPrefixes = []string{"reading ", "watching ", "playing ", "listening "}

// ExtractProjects finds project mentions in content. Duplicate names keep
// only their first occurrence.
func ExtractProjects(content string) []ProjectMention {
	var out []ProjectMention
	seen := make(map[string]bool)
	for _, re := range projectPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			name := canonicalName(m[1])
			if name == "" || seen[name] || hasMediaVerbPrefix(name) {
				continue
			}
			seen[name] = true
			out = append(out, ProjectMention{Name: name, Type: classifyProject(name)})
		}
	}
	return out
}

// ExtractMedia finds media mentions in content. Duplicate titles keep only
// their first occurrence.
func ExtractMedia(content string) []MediaMention {
	var out []MediaMention
	seen := make(map[string]bool)
	for _, p := range mediaPatterns {
		for _, m := range p.re.FindAllStringSubmatch(content, -1) {
			title := cleanTitle(m[1])
			if title == "" {
				continue
			}
			key := strings.ToLower(title)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, MediaMention{Title: title, Type: p.kind})
		}
	}
	return out
}

func hasMediaVerbPrefix(name string) bool {
	for _, p := range mediaVerbPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// leadingNoise strips activity verbs and articles that the broader trigger
// patterns sweep up, so "started building my meditation app" and "building
// my meditation app" yield the same name.
var leadingNoise = []string{
	"working on ", "building ", "writing ", "making ", "designing ",
	"composing ", "painting ", "recording ", "coding ",
	"my ", "the ", "a ", "an ",
}

// canonicalName lowercases, trims and collapses a raw captured name.
// Returns empty when nothing usable remains.
func canonicalName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.Trim(name, `'" -`)
	name = strings.Join(strings.Fields(name), " ")
	for changed := true; changed; {
		changed = false
		for _, p := range leadingNoise {
			if strings.HasPrefix(name, p) {
				name = strings.TrimPrefix(name, p)
				changed = true
			}
		}
	}
	// "working on my garden project" and "my garden project" should both
	// group under "garden".
	name = strings.TrimSuffix(name, " project")
	if len(name) < 2 {
		return ""
	}
	if len(name) > maxNameLen {
		name = truncateAtWord(name, maxNameLen)
	}
	return name
}

// cleanTitle trims a captured media title, keeping its casing.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `'" -`)
	title = strings.Join(strings.Fields(title), " ")
	if len(title) < 2 {
		return ""
	}
	if len(title) > maxNameLen {
		title = truncateAtWord(title, maxNameLen)
	}
	return title
}

// classifyProject types a project by keywords in its canonical name.
func classifyProject(name string) string {
	for _, kind := range []string{"technical", "creative", "learning"} {
		for _, w := range projectTypeWords[kind] {
			if containsWord(name, w) {
				return kind
			}
		}
	}
	return "personal"
}

// containsWord reports whether name contains w as a whole word.
func containsWord(name, w string) bool {
	idx := 0
	for {
		i := strings.Index(name[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || name[start-1] == ' '
		afterOK := end == len(name) || name[end] == ' '
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

// truncateAtWord cuts s to maxLen at the last word boundary.
func truncateAtWord(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
