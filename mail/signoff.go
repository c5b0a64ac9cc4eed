package mail

import (
	"fmt"
	"regexp"
	"strings"
)

// signoffPlaceholder matches the bracketed name placeholders models like to
// leave in drafted bodies: [your name], {your name}, (your name), <your name>.
var signoffPlaceholder = regexp.MustCompile(`(?i)\[your name\]|\{your name\}|\(your name\)|<your name>`)

// ApplyDefaultSignoff ensures a drafted body ends with the user's name. A
// body that already mentions the name near the end is left alone; a
// placeholder is substituted in place; otherwise a default "Best," sign-off
// is appended. An empty body or unknown name returns the body unchanged.
func ApplyDefaultSignoff(body, userName string) string {
	cleaned := strings.TrimSpace(body)
	if cleaned == "" || userName == "" {
		return body
	}

	tail := cleaned
	if len(tail) > 200 {
		tail = tail[len(tail)-200:]
	}
	if strings.Contains(strings.ToLower(tail), strings.ToLower(userName)) {
		return body
	}

	if signoffPlaceholder.MatchString(cleaned) {
		return signoffPlaceholder.ReplaceAllString(cleaned, userName)
	}

	return fmt.Sprintf("%s\n\nBest,\n%s", cleaned, userName)
}
