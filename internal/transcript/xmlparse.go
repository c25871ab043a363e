package transcript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/youtube-transcript-mcp/internal/models"
)

// parseTimedTextXML decodes the unofficial timedtext <transcript><text
// start=".." dur="..">..</text></transcript> body shared by both the
// primary caption endpoint and the standalone timedtext endpoint.
// Grounded on dogslee-go_youtube_transcript_api's etree-based XML walk.
func parseTimedTextXML(body []byte) ([]models.TranscriptSnippet, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse timedtext xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse timedtext xml: empty document")
	}

	var snippets []models.TranscriptSnippet
	for _, el := range root.FindElements("text") {
		text := cleanText(el.Text())
		if text == "" {
			continue
		}
		start := parseFloatAttr(el, "start")
		dur := parseFloatAttr(el, "dur")
		snippets = append(snippets, models.TranscriptSnippet{
			Text:     text,
			Start:    start,
			Duration: dur,
		})
	}
	return snippets, nil
}

func parseFloatAttr(el *etree.Element, name string) float64 {
	attr := el.SelectAttrValue(name, "0")
	v, err := strconv.ParseFloat(strings.TrimSpace(attr), 64)
	if err != nil {
		return 0
	}
	return v
}
