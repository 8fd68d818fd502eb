package analysis

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

var stopwords = func() map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(
		"a an and are as at be been being but by for from had has have how i if in into is it its of on or our over so than that the their them then there these they this to under up was we what when where which who will with you your") {
		m[w] = true
	}
	return m
}()

var wordRe = regexp.MustCompile(`[A-Za-z]+`)

// normalizeKey reduces an item to its content words so near-duplicate
// phrasings dedupe to the same key.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `-*•"'.,;:!?()[]`)
	var kept []string
	for _, t := range strings.Fields(s) {
		if !stopwords[t] {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return s
	}
	return strings.Join(kept, " ")
}

// ParseBlocks splits the analyzer's bulleted reply into the four running
// lists. Headers are matched case-insensitively with or without a colon;
// topic lines split on commas.
func ParseBlocks(s string) (actions, questions, decisions, topics []string) {
	headers := map[string]string{
		"action items": "actions", "actions": "actions",
		"questions": "questions", "question": "questions",
		"decisions": "decisions", "decision": "decisions",
		"key topics": "topics", "topics": "topics", "keywords": "topics",
	}
	current := ""
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		low := strings.TrimRight(strings.ToLower(line), ":")
		low = strings.Trim(low, "*# ")
		if section, ok := headers[low]; ok {
			current = section
			continue
		}
		text := line
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			text = strings.TrimSpace(line[2:])
		}
		switch current {
		case "actions":
			actions = append(actions, text)
		case "questions":
			questions = append(questions, text)
		case "decisions":
			decisions = append(decisions, text)
		case "topics":
			if strings.Contains(text, ",") {
				for _, t := range strings.Split(text, ",") {
					if t = strings.TrimSpace(t); t != "" {
						topics = append(topics, t)
					}
				}
			} else {
				topics = append(topics, text)
			}
		}
	}
	return actions, questions, decisions, topics
}

// Lists accumulates the running action/question/decision/topic lists across
// analysis ticks with stopword-normalized dedupe.
type Lists struct {
	mu        sync.Mutex
	actions   []string
	questions []string
	decisions []string
	topics    []string
	seen      [4]map[string]bool
}

func NewLists() *Lists {
	l := &Lists{}
	for i := range l.seen {
		l.seen[i] = make(map[string]bool)
	}
	return l
}

func (l *Lists) Merge(actions, questions, decisions, topics []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = addUnique(l.actions, l.seen[0], actions)
	l.questions = addUnique(l.questions, l.seen[1], questions)
	l.decisions = addUnique(l.decisions, l.seen[2], decisions)
	l.topics = addUnique(l.topics, l.seen[3], topics)
}

func addUnique(dst []string, seen map[string]bool, items []string) []string {
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || strings.EqualFold(it, "none.") || strings.EqualFold(it, "none") {
			continue
		}
		key := normalizeKey(it)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		dst = append(dst, it)
	}
	return dst
}

// Get returns copies of the four lists.
func (l *Lists) Get() (actions, questions, decisions, topics []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.actions...),
		append([]string(nil), l.questions...),
		append([]string(nil), l.decisions...),
		append([]string(nil), l.topics...)
}

func (l *Lists) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions) == 0 && len(l.questions) == 0 && len(l.decisions) == 0 && len(l.topics) == 0
}

// ExtractHeuristics derives rough lists from raw transcript text without a
// backend. Used at report time when no analysis ever landed, so the notes
// file still has something in its list sections.
func ExtractHeuristics(snippet string) (actions, questions, decisions, topics []string) {
	freq := make(map[string]int)
	for _, raw := range strings.Split(snippet, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)
		if strings.Contains(line, "?") || hasAnyPrefix(low,
			"who ", "what ", "why ", "how ", "when ", "where ",
			"do ", "does ", "did ", "is ", "are ", "have ", "has ") {
			questions = append(questions, line)
		}
		if containsAny(low, "we decided", "agreed", "decision", "we will", "we'll", "we chose", "proceed") {
			decisions = append(decisions, line)
		}
		if containsAny(low, "we need to", "we should", "todo", "follow up", "please ", "can you", "assign", "schedule", "send ", "prepare ") {
			actions = append(actions, line)
		}
		for _, tok := range wordRe.FindAllString(line, -1) {
			tok = strings.ToLower(tok)
			if len(tok) < 4 || stopwords[tok] {
				continue
			}
			freq[tok]++
		}
	}

	type tc struct {
		tok string
		n   int
	}
	ranked := make([]tc, 0, len(freq))
	for t, n := range freq {
		ranked = append(ranked, tc{t, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].tok < ranked[j].tok
	})
	for i := 0; i < len(ranked) && i < 10; i++ {
		topics = append(topics, ranked[i].tok)
	}
	return capList(actions, 5), capList(questions, 5), capList(decisions, 5), topics
}

func capList(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
