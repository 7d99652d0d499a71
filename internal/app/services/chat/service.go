package chat

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"rently/internal/app/outbox"
	domainchat "rently/internal/domain/chat"
	domainlistings "rently/internal/domain/listings"
	domainuser "rently/internal/domain/user"
)

const unknownUserName = "Unknown"

// ConversationSummary is the computed, non-persisted view of the most recent
// activity and unread state for one peer. A peer with messages on several
// listings still yields a single entry; the listing fields reflect only the
// newest message.
type ConversationSummary struct {
	PeerID          domainuser.ID
	PeerName        string
	PeerEmail       string
	LastMessageBody string
	LastMessageAt   time.Time
	LastMessageID   domainchat.MessageID
	UnreadCount     int64
	ListingID       domainlistings.ListingID
	ListingTitle    string
}

// Service derives conversations and read-state from the flat message log.
// No conversation entity is stored; every listing is a rescan of the log.
type Service struct {
	Messages domainchat.Store
	Users    domainuser.Repository
	Listings domainlistings.Repository
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

type SendParams struct {
	Sender    domainuser.ID
	Receiver  domainuser.ID
	ListingID domainlistings.ListingID
	Body      string
}

// Send appends a new unread message to the log.
func (s *Service) Send(ctx context.Context, params SendParams) (*domainchat.Message, error) {
	if s.Messages == nil {
		return nil, errors.New("chat: message store required")
	}
	msg, err := domainchat.NewMessage(domainchat.CreateMessageParams{
		SenderID:   params.Sender,
		ReceiverID: params.Receiver,
		ListingID:  params.ListingID,
		Body:       params.Body,
		Now:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	stored, err := s.Messages.Append(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, s.Outbox, s.Encoder, messageSentEvent{
		MessageID:  stored.ID,
		SenderID:   stored.SenderID,
		ReceiverID: stored.ReceiverID,
		ListingID:  stored.ListingID,
		At:         stored.CreatedAt,
	}); err != nil && s.Logger != nil {
		s.Logger.Warn("message event not recorded", "message_id", stored.ID, "error", err)
	}
	if s.Logger != nil {
		s.Logger.Info("message sent", "message_id", stored.ID, "sender_id", stored.SenderID, "receiver_id", stored.ReceiverID)
	}
	return stored, nil
}

// Conversation returns the full transcript between user and peer, oldest
// first, optionally narrowed to one listing. Arguments are order-insensitive.
func (s *Service) Conversation(ctx context.Context, user, peer domainuser.ID, listing domainlistings.ListingID) ([]*domainchat.Message, error) {
	return s.Messages.Transcript(ctx, user, peer, listing)
}

// ListConversations builds one summary per distinct peer: discover the peer
// set, then per peer fetch the newest message and the unread count, resolve
// display identities, and order by most recent activity.
func (s *Service) ListConversations(ctx context.Context, user domainuser.ID) ([]ConversationSummary, error) {
	peers, err := s.Messages.Peers(ctx, user)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(peers))
	for _, peer := range peers {
		last, err := s.Messages.LastMessage(ctx, user, peer)
		if err != nil {
			if errors.Is(err, domainchat.ErrMessageNotFound) {
				// Peer raced a delete between discovery and rescan.
				continue
			}
			return nil, err
		}
		unread, err := s.Messages.CountUnreadFrom(ctx, user, peer)
		if err != nil {
			return nil, err
		}

		summary := ConversationSummary{
			PeerID:          peer,
			PeerName:        unknownUserName,
			LastMessageBody: last.Body,
			LastMessageAt:   last.CreatedAt,
			LastMessageID:   last.ID,
			UnreadCount:     unread,
			ListingID:       last.ListingID,
		}
		if s.Users != nil {
			if profile, err := s.Users.ByID(ctx, peer); err == nil {
				summary.PeerName = profile.Name
				summary.PeerEmail = profile.Email
			}
		}
		if last.ListingID != "" && s.Listings != nil {
			if listing, err := s.Listings.ByID(ctx, last.ListingID); err == nil {
				summary.ListingTitle = listing.Title
			}
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastMessageAt.Equal(summaries[j].LastMessageAt) {
			return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
		}
		return summaries[i].LastMessageID > summaries[j].LastMessageID
	})
	return summaries, nil
}

// MarkRead flips every currently unread message from peer to user and
// returns the number flipped. Idempotent: a second immediate call returns 0.
func (s *Service) MarkRead(ctx context.Context, user, peer domainuser.ID) (int64, error) {
	count, err := s.Messages.MarkRead(ctx, user, peer)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.Logger != nil {
		s.Logger.Info("conversation read", "user_id", user, "peer_id", peer, "count", count)
	}
	return count, nil
}

// UnreadTotal counts unread messages for the user across all peers. It always
// equals the sum of per-peer unread counts in ListConversations.
func (s *Service) UnreadTotal(ctx context.Context, user domainuser.ID) (int64, error) {
	return s.Messages.CountUnread(ctx, user)
}

// DeleteMessage hard-deletes a message when requester is its sender. A false
// result deliberately does not distinguish a missing message from a
// non-sender requester.
func (s *Service) DeleteMessage(ctx context.Context, id domainchat.MessageID, requester domainuser.ID) (bool, error) {
	deleted, err := s.Messages.Delete(ctx, id, requester)
	if err != nil {
		return false, err
	}
	if deleted && s.Logger != nil {
		s.Logger.Info("message deleted", "message_id", id, "sender_id", requester)
	}
	return deleted, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type messageSentEvent struct {
	MessageID  domainchat.MessageID     `json:"message_id"`
	SenderID   domainuser.ID            `json:"sender_id"`
	ReceiverID domainuser.ID            `json:"receiver_id"`
	ListingID  domainlistings.ListingID `json:"listing_id,omitempty"`
	At         time.Time                `json:"at"`
}

func (e messageSentEvent) EventName() string     { return "chat.message_sent" }
func (e messageSentEvent) AggregateID() string   { return strconv.FormatInt(int64(e.MessageID), 10) }
func (e messageSentEvent) OccurredAt() time.Time { return e.At }
