package models

import "time"

// FetchedMessage is a channel message handed from the fetcher to the summary generator.
// It is never persisted.
type FetchedMessage struct {
	ID         string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
	CreatedAt  time.Time
}

// Prompt is the pair of prompt messages sent to the completion service
type Prompt struct {
	System string
	User   string
}
