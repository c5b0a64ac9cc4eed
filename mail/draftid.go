package mail

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Draft ids show up under different keys and nesting depending on the
// provider endpoint that produced the payload.
var (
	draftIDKeys   = []string{"draft_id", "draftId", "id"}
	containerKeys = []string{"data", "result", "response_data", "draft"}
)

// ExtractDraftID digs a draft identifier out of a raw provider payload. It
// checks the well-known id keys at the top level, then recurses into the
// known container objects and the first matching element of an "items"
// array. Returns "" when no id is found.
func ExtractDraftID(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return extractDraftID(gjson.ParseBytes(raw))
}

func extractDraftID(value gjson.Result) string {
	if !value.IsObject() {
		return ""
	}
	for _, key := range draftIDKeys {
		candidate := value.Get(key)
		if candidate.Type == gjson.String {
			if id := strings.TrimSpace(candidate.String()); id != "" {
				return id
			}
		}
	}
	for _, key := range containerKeys {
		if nested := value.Get(key); nested.IsObject() {
			if id := extractDraftID(nested); id != "" {
				return id
			}
		}
	}
	items := value.Get("items")
	if items.IsArray() {
		for _, item := range items.Array() {
			if id := extractDraftID(item); id != "" {
				return id
			}
		}
	}
	return ""
}
