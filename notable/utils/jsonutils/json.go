package jsonutils

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

var (
	reFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	invisibl = strings.NewReplacer("\uFEFF", "", "\u200B", "", "\u200C", "", "\u200D", "")
)

// CleanCompletion normalizes LLM output before it is shown or stored.
//
// It removes BOMs and zero-width characters and unwraps a single fenced
// block. The wording itself is left as the model wrote it.
func CleanCompletion(input string) string {
	input = strings.TrimSpace(invisibl.Replace(input))
	if match := reFence.FindStringSubmatch(input); len(match) > 1 {
		input = strings.TrimSpace(match[1])
	}
	return input
}

// ToJSON serializes a Go value to a JSON string with indentation.
// Returns an empty string if serialization fails.
func ToJSON(v interface{}) string {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(bytes))
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the {"error": msg} body used across the API.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
