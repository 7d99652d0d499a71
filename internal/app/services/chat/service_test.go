package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	domainchat "rently/internal/domain/chat"
	domainlistings "rently/internal/domain/listings"
	domainuser "rently/internal/domain/user"
	"rently/internal/infra/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.MessageStore, *memory.UserRepository) {
	t.Helper()
	messages := memory.NewMessageStore()
	users := memory.NewUserRepository()
	return &Service{
		Messages: messages,
		Users:    users,
	}, messages, users
}

func seedUser(t *testing.T, users *memory.UserRepository, id, name string) {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Email:        id + "@example.com",
		Name:         name,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	if err := users.Save(context.Background(), u); err != nil {
		t.Fatalf("save user %s: %v", id, err)
	}
}

func send(t *testing.T, svc *Service, from, to, body string, listing string) *domainchat.Message {
	t.Helper()
	msg, err := svc.Send(context.Background(), SendParams{
		Sender:    domainuser.ID(from),
		Receiver:  domainuser.ID(to),
		ListingID: domainlistings.ListingID(listing),
		Body:      body,
	})
	if err != nil {
		t.Fatalf("send %s->%s: %v", from, to, err)
	}
	return msg
}

func TestSendRejectsSelfMessage(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Send(context.Background(), SendParams{
		Sender:   "alice",
		Receiver: "alice",
		Body:     "hi me",
	})
	if !errors.Is(err, domainchat.ErrSelfMessage) {
		t.Fatalf("want ErrSelfMessage, got %v", err)
	}
}

func TestSendRejectsEmptyBody(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Send(context.Background(), SendParams{
		Sender:   "alice",
		Receiver: "bob",
		Body:     "   ",
	})
	if !errors.Is(err, domainchat.ErrBodyRequired) {
		t.Fatalf("want ErrBodyRequired, got %v", err)
	}
}

func TestSendAssignsIncreasingIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	first := send(t, svc, "alice", "bob", "one", "")
	second := send(t, svc, "alice", "bob", "two", "")
	if second.ID <= first.ID {
		t.Fatalf("ids must increase: first=%d second=%d", first.ID, second.ID)
	}
	if first.Read || second.Read {
		t.Fatal("new messages must start unread")
	}
}

func TestConversationIsSymmetric(t *testing.T) {
	svc, _, _ := newTestService(t)
	send(t, svc, "alice", "bob", "hi", "")
	send(t, svc, "bob", "alice", "hello", "")
	send(t, svc, "alice", "carol", "unrelated", "")

	ctx := context.Background()
	fromAlice, err := svc.Conversation(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	fromBob, err := svc.Conversation(ctx, "bob", "alice", "")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(fromAlice) != 2 || len(fromBob) != 2 {
		t.Fatalf("want both views of length 2, got %d and %d", len(fromAlice), len(fromBob))
	}
	for i := range fromAlice {
		if fromAlice[i].ID != fromBob[i].ID {
			t.Fatalf("views diverge at %d: %d vs %d", i, fromAlice[i].ID, fromBob[i].ID)
		}
	}
	if fromAlice[0].Body != "hi" || fromAlice[1].Body != "hello" {
		t.Fatalf("transcript must be oldest first, got %q then %q", fromAlice[0].Body, fromAlice[1].Body)
	}
}

func TestConversationListingFilter(t *testing.T) {
	svc, _, _ := newTestService(t)
	send(t, svc, "alice", "bob", "about the flat", "listing-5")
	send(t, svc, "bob", "alice", "still available", "listing-5")
	send(t, svc, "alice", "bob", "about the house", "listing-7")

	all, err := svc.Conversation(context.Background(), "alice", "bob", "")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered transcript: want 3, got %d", len(all))
	}
	flat, err := svc.Conversation(context.Background(), "alice", "bob", "listing-5")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	if len(flat) != 2 {
		t.Fatalf("filtered transcript: want 2, got %d", len(flat))
	}
	for _, m := range flat {
		if m.ListingID != "listing-5" {
			t.Fatalf("filter leak: got listing %q", m.ListingID)
		}
	}
}

func TestListConversationsOnePerPeer(t *testing.T) {
	svc, _, users := newTestService(t)
	seedUser(t, users, "bob", "Bob")
	seedUser(t, users, "carol", "Carol")

	send(t, svc, "alice", "bob", "about listing-5", "listing-5")
	send(t, svc, "bob", "alice", "reply on listing-5", "listing-5")
	send(t, svc, "alice", "bob", "about listing-7", "listing-7")
	send(t, svc, "carol", "alice", "hey", "")

	summaries, err := svc.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("want one summary per peer, got %d", len(summaries))
	}
	byPeer := map[domainuser.ID]ConversationSummary{}
	for _, s := range summaries {
		byPeer[s.PeerID] = s
	}
	bob, ok := byPeer["bob"]
	if !ok {
		t.Fatal("missing summary for bob")
	}
	if bob.LastMessageBody != "about listing-7" {
		t.Fatalf("bob summary must surface the newest message, got %q", bob.LastMessageBody)
	}
	if bob.ListingID != "listing-7" {
		t.Fatalf("bob summary listing: got %q", bob.ListingID)
	}
	if bob.PeerName != "Bob" {
		t.Fatalf("peer name: got %q", bob.PeerName)
	}
	if bob.UnreadCount != 1 {
		t.Fatalf("alice has one unread from bob, got %d", bob.UnreadCount)
	}
	carol := byPeer["carol"]
	if carol.UnreadCount != 1 || carol.LastMessageBody != "hey" {
		t.Fatalf("carol summary wrong: %+v", carol)
	}
}

func TestListConversationsOrderedByRecency(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc.Now = func() time.Time { return clock }

	send(t, svc, "alice", "bob", "oldest", "")
	clock = base.Add(time.Minute)
	send(t, svc, "alice", "carol", "middle", "")
	clock = base.Add(2 * time.Minute)
	send(t, svc, "dave", "alice", "newest", "")

	summaries, err := svc.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	want := []domainuser.ID{"dave", "carol", "bob"}
	if len(summaries) != len(want) {
		t.Fatalf("want %d summaries, got %d", len(want), len(summaries))
	}
	for i, peer := range want {
		if summaries[i].PeerID != peer {
			t.Fatalf("position %d: want %s, got %s", i, peer, summaries[i].PeerID)
		}
	}
}

func TestListConversationsTieBreakByID(t *testing.T) {
	svc, _, _ := newTestService(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return at }

	send(t, svc, "alice", "bob", "first at t", "")
	send(t, svc, "alice", "carol", "second at t", "")

	summaries, err := svc.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("want 2 summaries, got %d", len(summaries))
	}
	if summaries[0].PeerID != "carol" || summaries[1].PeerID != "bob" {
		t.Fatalf("equal timestamps must order by id desc, got %s then %s", summaries[0].PeerID, summaries[1].PeerID)
	}
}

func TestListConversationsUnknownPeerFallback(t *testing.T) {
	svc, _, _ := newTestService(t)
	send(t, svc, "ghost", "alice", "boo", "")

	summaries, err := svc.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("want 1 summary, got %d", len(summaries))
	}
	if summaries[0].PeerName != "Unknown" {
		t.Fatalf("deleted account must render as Unknown, got %q", summaries[0].PeerName)
	}
}

func TestUnreadTotalEqualsSumOfSummaries(t *testing.T) {
	svc, _, _ := newTestService(t)
	send(t, svc, "bob", "alice", "one", "")
	send(t, svc, "bob", "alice", "two", "")
	send(t, svc, "carol", "alice", "three", "")
	send(t, svc, "alice", "bob", "outgoing does not count", "")

	ctx := context.Background()
	total, err := svc.UnreadTotal(ctx, "alice")
	if err != nil {
		t.Fatalf("unread total: %v", err)
	}
	summaries, err := svc.ListConversations(ctx, "alice")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	var sum int64
	for _, s := range summaries {
		sum += s.UnreadCount
	}
	if total != sum {
		t.Fatalf("total %d must equal summary sum %d", total, sum)
	}
	if total != 3 {
		t.Fatalf("want 3 unread, got %d", total)
	}
}

func TestMarkReadFlipsAndIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	send(t, svc, "bob", "alice", "one", "")
	send(t, svc, "bob", "alice", "two", "")
	send(t, svc, "alice", "bob", "outgoing", "")

	ctx := context.Background()
	flipped, err := svc.MarkRead(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if flipped != 2 {
		t.Fatalf("want 2 flipped, got %d", flipped)
	}
	again, err := svc.MarkRead(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if again != 0 {
		t.Fatalf("second mark read must flip nothing, got %d", again)
	}
	total, err := svc.UnreadTotal(ctx, "alice")
	if err != nil {
		t.Fatalf("unread total: %v", err)
	}
	if total != 0 {
		t.Fatalf("want 0 unread after mark read, got %d", total)
	}
	// Bob's own unread from alice is untouched.
	bobTotal, err := svc.UnreadTotal(ctx, "bob")
	if err != nil {
		t.Fatalf("unread total: %v", err)
	}
	if bobTotal != 1 {
		t.Fatalf("bob must still have 1 unread, got %d", bobTotal)
	}
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	msg := send(t, svc, "alice", "bob", "oops", "")

	ctx := context.Background()
	if ok, err := svc.DeleteMessage(ctx, msg.ID, "bob"); err != nil || ok {
		t.Fatalf("receiver must not delete: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.DeleteMessage(ctx, msg.ID, "alice"); err != nil || !ok {
		t.Fatalf("sender delete failed: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.DeleteMessage(ctx, msg.ID, "alice"); err != nil || ok {
		t.Fatalf("double delete must report false: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.DeleteMessage(ctx, domainchat.MessageID(9999), "alice"); err != nil || ok {
		t.Fatalf("missing id must report false: ok=%v err=%v", ok, err)
	}
}

func TestDeleteOnlyMessageRemovesConversation(t *testing.T) {
	svc, _, _ := newTestService(t)
	msg := send(t, svc, "alice", "bob", "the only one", "")

	ctx := context.Background()
	if ok, err := svc.DeleteMessage(ctx, msg.ID, "alice"); err != nil || !ok {
		t.Fatalf("delete failed: ok=%v err=%v", ok, err)
	}
	summaries, err := svc.ListConversations(ctx, "alice")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("emptied conversation must disappear, got %d summaries", len(summaries))
	}
}

func TestSendRecordsOutboxEvent(t *testing.T) {
	svc, _, _ := newTestService(t)
	box := memory.NewOutbox()
	svc.Outbox = box

	send(t, svc, "alice", "bob", "hi", "listing-5")

	records := box.Records()
	if len(records) != 1 {
		t.Fatalf("want 1 outbox record, got %d", len(records))
	}
	if records[0].Name != "chat.message_sent" {
		t.Fatalf("event name: got %q", records[0].Name)
	}
}
