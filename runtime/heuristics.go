package runtime

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sandeep231004/gmailassistant/mail"
)

// Some models narrate a tool invocation as a code block instead of issuing a
// structured call. The fallback heuristics below detect that, recover the
// query when possible, and otherwise decide from the instructions whether a
// search should be forced.

// searchQueryPattern recovers the query from leaked tool-code text like
// task_email_search(search_query="latest from sam"). Either quote style is
// accepted.
var searchQueryPattern = regexp.MustCompile(`(?is)task_email_search\(\s*search_query\s*=\s*(?:"([^"]*)"|'([^']*)')`)

func containsToolCode(text string) bool {
	lowered := strings.ToLower(text)
	return strings.Contains(lowered, "tool_code") || strings.Contains(lowered, "default_api.task_email_search")
}

func extractSearchQuery(text string) string {
	if text == "" {
		return ""
	}
	m := searchQueryPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[2])
}

// draftTerms suppress the forced search: instructions about composing mail
// should not trigger a retrieval.
var draftTerms = []string{
	"draft",
	"compose",
	"write an email",
	"write email",
	"send an email",
	"send email",
	"email to",
	"mail to",
}

// searchKeywords trigger the forced search when the model produced no tool
// calls for a retrieval-flavored instruction.
var searchKeywords = []string{
	"email",
	"emails",
	"inbox",
	"gmail",
	"mail",
	"latest",
	"summarize",
	"summary",
	"summarise",
	"search",
	"find",
	"from:",
	"subject",
	"thread",
}

func shouldForceSearch(instructions string) bool {
	lowered := strings.ToLower(instructions)
	if lowered == "" {
		return false
	}
	for _, term := range draftTerms {
		if strings.Contains(lowered, term) {
			return false
		}
	}
	for _, key := range searchKeywords {
		if strings.Contains(lowered, key) {
			return true
		}
	}
	return false
}

func parseTimestamp(value string) time.Time {
	return mail.ParseTimestamp(value)
}

func newestItem(items []mail.EmailItem) mail.EmailItem {
	newest := items[0]
	newestTS := parseTimestamp(newest.Timestamp)
	for _, item := range items[1:] {
		if ts := parseTimestamp(item.Timestamp); ts.After(newestTS) {
			newest = item
			newestTS = ts
		}
	}
	return newest
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// summarizeSearchResults builds the concise fallback summary used when the
// model leaves a search result unexplained.
func summarizeSearchResults(items []mail.EmailItem) string {
	if len(items) == 0 {
		return "I couldn't find any emails matching that."
	}

	sorted := make([]mail.EmailItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseTimestamp(sorted[i].Timestamp).After(parseTimestamp(sorted[j].Timestamp))
	})
	top := sorted[0]
	subject := orDefault(top.Subject, "No subject")
	sender := orDefault(top.Sender, "Unknown sender")
	timestamp := strings.TrimSpace(top.Timestamp)

	if len(sorted) == 1 {
		return fmt.Sprintf("Found 1 email from %s: %s (%s).", sender, subject, timestamp)
	}
	return fmt.Sprintf("Found %d emails. Latest from %s: %s (%s).", len(sorted), sender, subject, timestamp)
}

// sentenceBoundary splits after terminal punctuation followed by whitespace.
var sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)

// summarizeText produces a short preview: the first two sentences capped at
// 400 characters, or a raw 200-character snippet when no sentence boundary
// exists.
func summarizeText(text string) string {
	if text == "" {
		return "No preview available."
	}
	sentences := splitSentences(text)
	summary := strings.TrimSpace(strings.Join(firstN(sentences, 2), " "))
	if summary != "" {
		return truncateRunes(summary, 400)
	}
	return truncateRunes(text, 200)
}

func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringSubmatchIndex(text, -1) {
		// loc[3] is the end of the punctuation group; the whitespace is
		// dropped, matching a split on the boundary.
		sentences = append(sentences, text[last:loc[3]])
		last = loc[1]
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}

func firstN(parts []string, n int) []string {
	if len(parts) <= n {
		return parts
	}
	return parts[:n]
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
