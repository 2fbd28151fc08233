package usecase

import (
	"strings"

	"github.com/meomirror/server/domain/entities"
)

// Default coordinates for weather lookups: Ho Chi Minh City, where the
// device lives.
const (
	DefaultLat = 10.8231
	DefaultLon = 106.6297
)

// commandRule pairs ordered substring predicates with a command constructor.
// Rules are evaluated top to bottom; the first phrase hit wins and later
// rules are never consulted.
type commandRule struct {
	phrases []string
	build   func() entities.Command
}

var commandRules = []commandRule{
	{
		phrases: []string{"tạo tranh", "tạo ảnh", "tao tranh", "tao anh"},
		build: func() entities.Command {
			return entities.Command{Kind: entities.CommandGenerateImage}
		},
	},
	{
		phrases: []string{"thời tiết", "thoi tiet"},
		build: func() entities.Command {
			return entities.Command{Kind: entities.CommandWeather, Lat: DefaultLat, Lon: DefaultLon}
		},
	},
}

// NormalizeUtterance lowercases the text and collapses runs of whitespace.
func NormalizeUtterance(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ParseCommand maps an utterance to a typed command. Matching is
// case-insensitive, whitespace-normalized and substring-based. Unmatched text
// yields CommandUnknown carrying the original utterance.
func ParseCommand(text string) entities.Command {
	normalized := NormalizeUtterance(text)
	for _, rule := range commandRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(normalized, phrase) {
				return rule.build()
			}
		}
	}
	return entities.Command{Kind: entities.CommandUnknown, Text: text}
}
