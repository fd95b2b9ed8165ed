package model

// CitationMarker is one inline citation ([1], [2], [a]) anchored to a character
// span of the paragraph text, mapped to the reference it points at.
type CitationMarker struct {
	Key   string `json:"key"`            // Marker key as it appears in text (usually a number)
	Start int    `json:"start"`          // Byte offset of '[' in the paragraph text
	End   int    `json:"end"`            // Byte offset just past ']'
	URL   string `json:"url,omitempty"`  // External URL of the reference, empty for bare notes
	Text  string `json:"text,omitempty"` // Reference description from the citation list
	Note  bool   `json:"note,omitempty"` // True for footnote-style markers without a numeric key
}

// Paragraph is the unit of analysis: one paragraph of article prose with its
// inline citation markers. Immutable once loaded.
type Paragraph struct {
	Text      string           `json:"text"`
	Citations []CitationMarker `json:"citations"`
	Topic     string           `json:"topic,omitempty"`     // Article topic, used as analysis context
	PageURL   string           `json:"page_url,omitempty"`  // Where the paragraph came from
	Index     int              `json:"index"`               // Paragraph position within the page
}
