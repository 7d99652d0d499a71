package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "rently/internal/domain/chat"
	domainlistings "rently/internal/domain/listings"
	domainuser "rently/internal/domain/user"
)

// MessageStore persists the message log in a single collection. There is no
// conversation collection: peer sets, last messages and unread counts are all
// derived by querying this log, and mutations are scoped by identity
// predicates rather than locks.
type MessageStore struct {
	col *mongo.Collection
	seq sequence
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	col := db.Collection("messages")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "read", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &MessageStore{col: col, seq: newSequence(db, "messages")}
}

func (s *MessageStore) Append(ctx context.Context, msg *domainchat.Message) (*domainchat.Message, error) {
	id, err := s.seq.Next(ctx)
	if err != nil {
		return nil, err
	}
	doc := newMessageDocument(msg)
	doc.ID = id
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *MessageStore) Transcript(ctx context.Context, user, peer domainuser.ID, listing domainlistings.ListingID) ([]*domainchat.Message, error) {
	filter := pairFilter(user, peer)
	if listing != "" {
		filter["listing_id"] = string(listing)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]*domainchat.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		messages = append(messages, doc.toDomain())
	}
	return messages, cursor.Err()
}

func (s *MessageStore) Peers(ctx context.Context, user domainuser.ID) ([]domainuser.ID, error) {
	sentTo, err := s.col.Distinct(ctx, "receiver_id", bson.M{"sender_id": string(user)})
	if err != nil {
		return nil, err
	}
	receivedFrom, err := s.col.Distinct(ctx, "sender_id", bson.M{"receiver_id": string(user)})
	if err != nil {
		return nil, err
	}

	seen := make(map[domainuser.ID]struct{}, len(sentTo)+len(receivedFrom))
	peers := make([]domainuser.ID, 0, len(sentTo)+len(receivedFrom))
	for _, raw := range append(sentTo, receivedFrom...) {
		id, ok := raw.(string)
		if !ok {
			continue
		}
		peer := domainuser.ID(id)
		if _, dup := seen[peer]; dup {
			continue
		}
		seen[peer] = struct{}{}
		peers = append(peers, peer)
	}
	return peers, nil
}

func (s *MessageStore) LastMessage(ctx context.Context, user, peer domainuser.ID) (*domainchat.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	var doc messageDocument
	if err := s.col.FindOne(ctx, pairFilter(user, peer), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainchat.ErrMessageNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (s *MessageStore) CountUnreadFrom(ctx context.Context, user, peer domainuser.ID) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{
		"sender_id":   string(peer),
		"receiver_id": string(user),
		"read":        false,
	})
}

func (s *MessageStore) CountUnread(ctx context.Context, user domainuser.ID) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{
		"receiver_id": string(user),
		"read":        false,
	})
}

func (s *MessageStore) MarkRead(ctx context.Context, user, peer domainuser.ID) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"sender_id": string(peer), "receiver_id": string(user), "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *MessageStore) Delete(ctx context.Context, id domainchat.MessageID, requester domainuser.ID) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": int64(id), "sender_id": string(requester)})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func pairFilter(user, peer domainuser.ID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": string(user), "receiver_id": string(peer)},
		bson.M{"sender_id": string(peer), "receiver_id": string(user)},
	}}
}

type messageDocument struct {
	ID         int64  `bson:"_id"`
	SenderID   string `bson:"sender_id"`
	ReceiverID string `bson:"receiver_id"`
	ListingID  string `bson:"listing_id,omitempty"`
	Body       string `bson:"body"`
	Read       bool   `bson:"read"`
	CreatedAt  int64  `bson:"created_at"`
}

func newMessageDocument(m *domainchat.Message) messageDocument {
	return messageDocument{
		ID:         int64(m.ID),
		SenderID:   string(m.SenderID),
		ReceiverID: string(m.ReceiverID),
		ListingID:  string(m.ListingID),
		Body:       m.Body,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toDomain() *domainchat.Message {
	return &domainchat.Message{
		ID:         domainchat.MessageID(d.ID),
		SenderID:   domainuser.ID(d.SenderID),
		ReceiverID: domainuser.ID(d.ReceiverID),
		ListingID:  domainlistings.ListingID(d.ListingID),
		Body:       d.Body,
		Read:       d.Read,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainchat.Store = (*MessageStore)(nil)
