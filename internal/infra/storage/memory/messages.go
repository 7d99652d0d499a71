package memory

import (
	"context"
	"sort"
	"sync"

	domainchat "rently/internal/domain/chat"
	domainlistings "rently/internal/domain/listings"
	domainuser "rently/internal/domain/user"
)

// MessageStore keeps the message log in memory. Not suitable for production.
type MessageStore struct {
	mu     sync.RWMutex
	nextID domainchat.MessageID
	items  map[domainchat.MessageID]*domainchat.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		nextID: 1,
		items:  make(map[domainchat.MessageID]*domainchat.Message),
	}
}

func (s *MessageStore) Append(ctx context.Context, msg *domainchat.Message) (*domainchat.Message, error) {
	if msg == nil {
		return nil, domainchat.ErrBodyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneMessage(msg)
	stored.ID = s.nextID
	s.nextID++
	s.items[stored.ID] = stored
	return cloneMessage(stored), nil
}

func (s *MessageStore) Transcript(ctx context.Context, user, peer domainuser.ID, listing domainlistings.ListingID) ([]*domainchat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*domainchat.Message, 0)
	for _, msg := range s.items {
		if !msg.Between(user, peer) {
			continue
		}
		if listing != "" && msg.ListingID != listing {
			continue
		}
		matches = append(matches, cloneMessage(msg))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Before(matches[j])
	})
	return matches, nil
}

func (s *MessageStore) Peers(ctx context.Context, user domainuser.ID) ([]domainuser.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domainuser.ID]struct{})
	for _, msg := range s.items {
		switch user {
		case msg.SenderID:
			seen[msg.ReceiverID] = struct{}{}
		case msg.ReceiverID:
			seen[msg.SenderID] = struct{}{}
		}
	}
	peers := make([]domainuser.ID, 0, len(seen))
	for peer := range seen {
		peers = append(peers, peer)
	}
	return peers, nil
}

func (s *MessageStore) LastMessage(ctx context.Context, user, peer domainuser.ID) (*domainchat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *domainchat.Message
	for _, msg := range s.items {
		if !msg.Between(user, peer) {
			continue
		}
		if last == nil || last.Before(msg) {
			last = msg
		}
	}
	if last == nil {
		return nil, domainchat.ErrMessageNotFound
	}
	return cloneMessage(last), nil
}

func (s *MessageStore) CountUnreadFrom(ctx context.Context, user, peer domainuser.ID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, msg := range s.items {
		if msg.SenderID == peer && msg.ReceiverID == user && !msg.Read {
			count++
		}
	}
	return count, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, user domainuser.ID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, msg := range s.items {
		if msg.ReceiverID == user && !msg.Read {
			count++
		}
	}
	return count, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, user, peer domainuser.ID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for _, msg := range s.items {
		if msg.SenderID == peer && msg.ReceiverID == user && !msg.Read {
			msg.Read = true
			flipped++
		}
	}
	return flipped, nil
}

func (s *MessageStore) Delete(ctx context.Context, id domainchat.MessageID, requester domainuser.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.items[id]
	if !ok || msg.SenderID != requester {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func cloneMessage(m *domainchat.Message) *domainchat.Message {
	if m == nil {
		return nil
	}
	copyMsg := *m
	return &copyMsg
}

var _ domainchat.Store = (*MessageStore)(nil)
