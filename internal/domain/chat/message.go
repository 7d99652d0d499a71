package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	domainlistings "rently/internal/domain/listings"
	domainuser "rently/internal/domain/user"
)

var (
	ErrSenderRequired   = errors.New("chat: sender is required")
	ErrReceiverRequired = errors.New("chat: receiver is required")
	ErrBodyRequired     = errors.New("chat: body is required")
	ErrSelfMessage      = errors.New("chat: cannot message yourself")
	ErrMessageNotFound  = errors.New("chat: message not found")
)

// MessageID is assigned by the store in strictly increasing order, which
// makes it usable as the tie-break key when two messages share a timestamp.
type MessageID int64

// Message is a single directed entry in the append-only message log.
// Everything except the read flag is immutable after creation.
type Message struct {
	ID         MessageID
	SenderID   domainuser.ID
	ReceiverID domainuser.ID
	ListingID  domainlistings.ListingID
	Body       string
	Read       bool
	CreatedAt  time.Time
}

type CreateMessageParams struct {
	SenderID   domainuser.ID
	ReceiverID domainuser.ID
	ListingID  domainlistings.ListingID
	Body       string
	Now        time.Time
}

// NewMessage validates and builds an unsent message. The store assigns the
// identifier on append.
func NewMessage(params CreateMessageParams) (*Message, error) {
	sender := domainuser.ID(strings.TrimSpace(string(params.SenderID)))
	if sender == "" {
		return nil, ErrSenderRequired
	}
	receiver := domainuser.ID(strings.TrimSpace(string(params.ReceiverID)))
	if receiver == "" {
		return nil, ErrReceiverRequired
	}
	if sender == receiver {
		return nil, ErrSelfMessage
	}
	body := strings.TrimSpace(params.Body)
	if body == "" {
		return nil, ErrBodyRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		SenderID:   sender,
		ReceiverID: receiver,
		ListingID:  domainlistings.ListingID(strings.TrimSpace(string(params.ListingID))),
		Body:       body,
		Read:       false,
		CreatedAt:  now.UTC(),
	}, nil
}

// Between reports whether the message belongs to the pairwise transcript of
// the two users, in either direction.
func (m *Message) Between(a, b domainuser.ID) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Before orders messages by creation time, falling back to the identifier so
// the ordering stays deterministic at coarse timestamp resolution.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// Store is the durable message log. Appends assign identifiers; the only
// permitted mutations are the receiver's bulk read flip and the sender's
// hard delete.
type Store interface {
	Append(ctx context.Context, msg *Message) (*Message, error)
	// Transcript returns both directions between user and peer ordered
	// oldest first. A non-empty listing narrows the result to that listing.
	Transcript(ctx context.Context, user, peer domainuser.ID, listing domainlistings.ListingID) ([]*Message, error)
	// Peers returns every distinct counterparty the user has exchanged at
	// least one message with, in no particular order.
	Peers(ctx context.Context, user domainuser.ID) ([]domainuser.ID, error)
	// LastMessage returns the newest message between user and peer across
	// all listings, or ErrMessageNotFound when none exist.
	LastMessage(ctx context.Context, user, peer domainuser.ID) (*Message, error)
	CountUnreadFrom(ctx context.Context, user, peer domainuser.ID) (int64, error)
	CountUnread(ctx context.Context, user domainuser.ID) (int64, error)
	// MarkRead flips every unread message from peer to user and returns the
	// number of messages actually flipped. The flip is all-or-nothing for
	// the matched set.
	MarkRead(ctx context.Context, user, peer domainuser.ID) (int64, error)
	// Delete removes the message only when requester is its sender. A false
	// result covers both a missing message and a non-sender requester.
	Delete(ctx context.Context, id MessageID, requester domainuser.ID) (bool, error)
}
