package chat

import (
	"errors"
	"testing"
	"time"
)

func TestNewMessageValidation(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		params  CreateMessageParams
		wantErr error
	}{
		{
			name:    "missing sender",
			params:  CreateMessageParams{ReceiverID: "bob", Body: "hi", Now: now},
			wantErr: ErrSenderRequired,
		},
		{
			name:    "missing receiver",
			params:  CreateMessageParams{SenderID: "alice", Body: "hi", Now: now},
			wantErr: ErrReceiverRequired,
		},
		{
			name:    "self message",
			params:  CreateMessageParams{SenderID: "alice", ReceiverID: "alice", Body: "hi", Now: now},
			wantErr: ErrSelfMessage,
		},
		{
			name:    "self message with padding",
			params:  CreateMessageParams{SenderID: " alice ", ReceiverID: "alice", Body: "hi", Now: now},
			wantErr: ErrSelfMessage,
		},
		{
			name:    "blank body",
			params:  CreateMessageParams{SenderID: "alice", ReceiverID: "bob", Body: " \t ", Now: now},
			wantErr: ErrBodyRequired,
		},
		{
			name:   "valid",
			params: CreateMessageParams{SenderID: "alice", ReceiverID: "bob", Body: " hi ", Now: now},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := NewMessage(tc.params)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Body != "hi" {
				t.Fatalf("body must be trimmed, got %q", msg.Body)
			}
			if msg.Read {
				t.Fatal("new message must be unread")
			}
			if !msg.CreatedAt.Equal(now) {
				t.Fatalf("created at: got %v", msg.CreatedAt)
			}
		})
	}
}

func TestBetweenIsDirectionless(t *testing.T) {
	msg := &Message{SenderID: "alice", ReceiverID: "bob"}
	if !msg.Between("alice", "bob") || !msg.Between("bob", "alice") {
		t.Fatal("Between must match either argument order")
	}
	if msg.Between("alice", "carol") {
		t.Fatal("Between must not match a foreign pair")
	}
}

func TestBeforeTieBreaksOnID(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	older := &Message{ID: 1, CreatedAt: at}
	newer := &Message{ID: 2, CreatedAt: at}
	if !older.Before(newer) {
		t.Fatal("equal timestamps must order by id")
	}
	if newer.Before(older) {
		t.Fatal("ordering must be asymmetric")
	}
	later := &Message{ID: 1, CreatedAt: at.Add(time.Second)}
	if !newer.Before(later) {
		t.Fatal("timestamp dominates id")
	}
}
