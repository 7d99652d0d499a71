package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type stubStore struct {
	docs   []*EventDocument
	sent   []string
	failed []string
}

func (s *stubStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(s.docs) == 0 {
		return nil, nil
	}
	doc := s.docs[0]
	s.docs = s.docs[1:]
	return doc, nil
}

func (s *stubStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *stubStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubProducer struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *stubProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestProcessOnceRelaysCloudEvent(t *testing.T) {
	store := &stubStore{docs: []*EventDocument{{
		ID:         "evt-1",
		Name:       "chat.message_sent",
		Payload:    []byte(`{"message_id":1}`),
		Aggregate:  "1",
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	producer := &stubProducer{}
	w := &Worker{Store: store, Producer: producer, ID: "w1", Source: "rently"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.sent) != 1 || store.sent[0] != "evt-1" {
		t.Fatalf("want evt-1 marked sent, got %v", store.sent)
	}
	if len(producer.topics) != 1 || producer.topics[0] != "chat.events.v1" {
		t.Fatalf("topic: got %v", producer.topics)
	}

	var evt map[string]any
	if err := json.Unmarshal(producer.payloads[0], &evt); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if evt["specversion"] != "1.0" {
		t.Fatalf("specversion: got %v", evt["specversion"])
	}
	if evt["type"] != "chat.message_sent.v1" {
		t.Fatalf("type: got %v", evt["type"])
	}
	if evt["source"] != "rently" {
		t.Fatalf("source: got %v", evt["source"])
	}
}

func TestProcessOnceMarksFailedOnPublishError(t *testing.T) {
	store := &stubStore{docs: []*EventDocument{{
		ID:      "evt-1",
		Name:    "chat.message_sent",
		Payload: []byte(`{}`),
	}}}
	producer := &stubProducer{err: errors.New("broker down")}
	w := &Worker{Store: store, Producer: producer, ID: "w1"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("publish failure must not stop the loop: %v", err)
	}
	if len(store.failed) != 1 {
		t.Fatalf("want 1 failed, got %v", store.failed)
	}
	if len(store.sent) != 0 {
		t.Fatalf("nothing may be marked sent, got %v", store.sent)
	}
}

func TestTopicForPrefix(t *testing.T) {
	w := &Worker{TopicPrefix: "staging."}
	if got := w.topicFor("listings.listing_created"); got != "staging.listings.events.v1" {
		t.Fatalf("topic: got %q", got)
	}
	w = &Worker{}
	if got := w.topicFor("reviews.review_submitted"); got != "reviews.events.v1" {
		t.Fatalf("topic: got %q", got)
	}
}

func TestRunRequiresWiring(t *testing.T) {
	w := &Worker{}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("want ErrWorkerNotConfigured, got %v", err)
	}
}
