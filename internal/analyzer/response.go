package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

const fence = "```"

// RequiredKeys are the fields every model reply must carry
var RequiredKeys = []string{"title", "caption", "scene_description", "persons", "objects"}

// StripFence removes a markdown code fence around text. The opening marker is the whole
// first line when it starts with ``` (so ```json and other info strings are dropped), or
// ``` plus its info string when the fence shares a line with the body. The closing marker
// is a trailing ```. Text without fences is returned trimmed
func StripFence(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, fence) {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, fence)
			text = strings.TrimLeftFunc(text, unicode.IsLetter)
		}
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

// ParseResponse turns a raw model reply into an Annotation without a timestamp.
// It fails with ErrMalformedResponse when the reply is not a JSON object of the expected
// shape and with ErrIncompleteResponse when a required key is missing or null
func ParseResponse(raw string) (models.Annotation, error) {
	text := StripFence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return models.Annotation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return models.Annotation{}, fmt.Errorf("%w: reply is not a JSON object", ErrMalformedResponse)
	}

	var missing []string
	for _, key := range RequiredKeys {
		value, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return models.Annotation{}, fmt.Errorf("%w: missing keys %s", ErrIncompleteResponse, strings.Join(missing, ", "))
	}

	var a models.Annotation
	targets := map[string]any{
		"title":             &a.Title,
		"caption":           &a.Caption,
		"scene_description": &a.SceneDescription,
		"persons":           &a.Persons,
		"objects":           &a.Objects,
	}
	for _, key := range RequiredKeys {
		if err := json.Unmarshal(fields[key], targets[key]); err != nil {
			return models.Annotation{}, fmt.Errorf("%w: key %q: %v", ErrMalformedResponse, key, err)
		}
	}

	if a.Persons == nil {
		a.Persons = []string{}
	}
	if a.Objects == nil {
		a.Objects = []string{}
	}
	return a, nil
}
