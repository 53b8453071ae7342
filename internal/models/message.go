package models

import "time"

// ChatMessage is an inbound conversational message delivered by the chat
// transport.
type ChatMessage struct {
	ID   string    `json:"id"`
	User string    `json:"user"`
	Text string    `json:"text"`
	Time time.Time `json:"time,omitempty"`
}

// AttachmentField is a single labelled value on a rich attachment. Short
// fields render side by side in most chat clients.
type AttachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Attachment is the structured payload posted alongside a plain-text reply
// for single-issue summaries.
type Attachment struct {
	Title      string            `json:"title"`
	TitleLink  string            `json:"title_link"`
	AuthorName string            `json:"author_name,omitempty"`
	AuthorIcon string            `json:"author_icon,omitempty"`
	Text       string            `json:"text,omitempty"`
	Fields     []AttachmentField `json:"fields,omitempty"`
}

// ChatReply is an outbound reply: plain text, optionally with a rich
// attachment.
type ChatReply struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}
