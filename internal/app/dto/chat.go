package dto

import (
	"time"

	chatsvc "rently/internal/app/services/chat"
	domainchat "rently/internal/domain/chat"
)

// ChatMessage is a single message payload.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	ListingID  string    `json:"listing_id,omitempty"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatMessageList struct {
	Items []ChatMessage `json:"items"`
}

// Conversation is the derived per-peer summary.
type Conversation struct {
	PeerID          string    `json:"peer_id"`
	PeerName        string    `json:"peer_name"`
	PeerEmail       string    `json:"peer_email"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
	ListingID       string    `json:"listing_id,omitempty"`
	ListingTitle    string    `json:"listing_title,omitempty"`
}

type ConversationList struct {
	Items []Conversation `json:"items"`
}

func MapChatMessage(m *domainchat.Message) ChatMessage {
	if m == nil {
		return ChatMessage{}
	}
	return ChatMessage{
		ID:         int64(m.ID),
		SenderID:   string(m.SenderID),
		ReceiverID: string(m.ReceiverID),
		ListingID:  string(m.ListingID),
		Body:       m.Body,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

func MapChatMessages(messages []*domainchat.Message) ChatMessageList {
	items := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		items = append(items, MapChatMessage(m))
	}
	return ChatMessageList{Items: items}
}

func MapConversation(summary chatsvc.ConversationSummary) Conversation {
	return Conversation{
		PeerID:          string(summary.PeerID),
		PeerName:        summary.PeerName,
		PeerEmail:       summary.PeerEmail,
		LastMessage:     summary.LastMessageBody,
		LastMessageTime: summary.LastMessageAt,
		UnreadCount:     summary.UnreadCount,
		ListingID:       string(summary.ListingID),
		ListingTitle:    summary.ListingTitle,
	}
}

func MapConversations(summaries []chatsvc.ConversationSummary) ConversationList {
	items := make([]Conversation, 0, len(summaries))
	for _, summary := range summaries {
		items = append(items, MapConversation(summary))
	}
	return ConversationList{Items: items}
}
