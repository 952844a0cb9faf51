package model

// Note is a free-form text card.
type Note struct {
	Base
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	BackgroundColor *BackgroundColor `json:"background_color"`
}
