// File: services/intelligence/parser.go
package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"careai/models"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

type entityEnvelope struct {
	Entities *models.ExtractedEntities `json:"entities"`
}

// ParseEntities splits a raw assistant reply into clean display text and any
// structured entities appended as a fenced JSON block. A malformed block is
// left in the text untouched rather than dropped.
func ParseEntities(raw string) models.AIReply {
	reply := models.AIReply{TextResponse: strings.TrimSpace(raw)}

	match := jsonBlockRegex.FindStringSubmatch(raw)
	if match == nil {
		return reply
	}

	var envelope entityEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &envelope); err != nil {
		return reply
	}
	if envelope.Entities != nil {
		reply.Entities = envelope.Entities
		reply.TextResponse = strings.TrimSpace(jsonBlockRegex.ReplaceAllString(raw, ""))
	}
	return reply
}
