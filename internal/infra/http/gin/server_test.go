package ginserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "rently/internal/app/services/auth"
	chatsvc "rently/internal/app/services/chat"
	listingssvc "rently/internal/app/services/listings"
	reviewssvc "rently/internal/app/services/reviews"
	"rently/internal/infra/config"
	"rently/internal/infra/obs"
	"rently/internal/infra/security"
	"rently/internal/infra/storage/memory"
	"rently/internal/infra/storage/s3"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()

	authService := &authsvc.Service{
		Users:     users,
		Sessions:  memory.NewSessionStore(),
		Passwords: security.BcryptHasher{},
		Tokens:    security.RandomTokenGenerator{},
	}
	listingService := &listingssvc.Service{
		Listings: listings,
		Uploader: s3.NoopUploader{},
	}
	reviewService := &reviewssvc.Service{
		Reviews:  memory.NewReviewRepository(),
		Listings: listings,
	}
	chatService := &chatsvc.Service{
		Messages: memory.NewMessageStore(),
		Users:    users,
		Listings: listings,
	}

	server := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Auth:           AuthHandler{Service: authService},
		Listings:       ListingHandler{Service: listingService},
		Reviews:        ReviewHandler{Service: reviewService},
		Chat:           ChatHandler{Service: chatService},
		AuthMiddleware: AuthMiddleware{Service: authService}.Handle,
	})
	return server.Handler
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, handler http.Handler, email, name string) (id, token string) {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"name":     name,
		"password": "supersecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.User.ID, resp.Token
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestServer(t)
	for _, path := range []string{"/livez", "/readyz"} {
		rec := doJSON(t, handler, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestMessagingRequiresAuth(t *testing.T) {
	handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/messages/conversations", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestMessagingRoundTrip(t *testing.T) {
	handler := newTestServer(t)
	aliceID, aliceToken := registerUser(t, handler, "alice@example.com", "Alice")
	bobID, bobToken := registerUser(t, handler, "bob@example.com", "Bob")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/messages", aliceToken, map[string]string{
		"receiver_id": bobID,
		"body":        "is the flat still available?",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: status %d body %s", rec.Code, rec.Body.String())
	}
	var sent struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode sent message: %v", err)
	}
	if sent.ID == 0 {
		t.Fatal("sent message must carry an id")
	}

	// Bob sees one conversation with one unread message from Alice.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/messages/conversations", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("conversations: status %d", rec.Code)
	}
	var summaries struct {
		Items []struct {
			PeerID      string `json:"peer_id"`
			PeerName    string `json:"peer_name"`
			LastMessage string `json:"last_message"`
			UnreadCount int64  `json:"unread_count"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode summaries: %v", err)
	}
	if len(summaries.Items) != 1 {
		t.Fatalf("want 1 summary, got %d", len(summaries.Items))
	}
	if summaries.Items[0].PeerID != aliceID || summaries.Items[0].PeerName != "Alice" {
		t.Fatalf("summary peer: %+v", summaries.Items[0])
	}
	if summaries.Items[0].UnreadCount != 1 {
		t.Fatalf("unread count: got %d", summaries.Items[0].UnreadCount)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/messages/unread-count", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unread count: status %d", rec.Code)
	}
	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &unread); err != nil {
		t.Fatalf("decode unread: %v", err)
	}
	if unread.UnreadCount != 1 {
		t.Fatalf("total unread: got %d", unread.UnreadCount)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/messages/conversation/"+aliceID+"/read", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: status %d", rec.Code)
	}
	var marked struct {
		Updated int64 `json:"updated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &marked); err != nil {
		t.Fatalf("decode mark read: %v", err)
	}
	if marked.Updated != 1 {
		t.Fatalf("mark read flipped: got %d", marked.Updated)
	}

	// Only the sender can delete, and a foreign attempt reads as missing.
	path := fmt.Sprintf("/api/v1/messages/%d", sent.ID)
	if rec := doJSON(t, handler, http.MethodDelete, path, bobToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("receiver delete: want 404, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodDelete, path, aliceToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("sender delete: want 204, got %d", rec.Code)
	}
}

func TestSendToSelfRejected(t *testing.T) {
	handler := newTestServer(t)
	aliceID, aliceToken := registerUser(t, handler, "alice@example.com", "Alice")
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/messages", aliceToken, map[string]string{
		"receiver_id": aliceID,
		"body":        "note to self",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestListingLifecycle(t *testing.T) {
	handler := newTestServer(t)
	_, ownerToken := registerUser(t, handler, "owner@example.com", "Owner")
	_, otherToken := registerUser(t, handler, "other@example.com", "Other")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/listings", ownerToken, map[string]any{
		"title":         "Cozy flat",
		"property_type": "apartment",
		"price_cents":   150000,
		"address":       "Main St 1",
		"city":          "Berlin",
		"country":       "Germany",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create listing: status %d body %s", rec.Code, rec.Body.String())
	}
	var listing struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}

	// Catalogue search is public.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/listings?city=berlin", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status %d", rec.Code)
	}

	// Only the owner may update.
	patch := map[string]any{"price_cents": 140000}
	if rec := doJSON(t, handler, http.MethodPatch, "/api/v1/listings/"+listing.ID, otherToken, patch); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign update: want 403, got %d", rec.Code)
	}
	if rec := doJSON(t, handler, http.MethodPatch, "/api/v1/listings/"+listing.ID, ownerToken, patch); rec.Code != http.StatusOK {
		t.Fatalf("owner update: want 200, got %d body %s", rec.Code, rec.Body.String())
	}

	// Reviews: one per author, author-only delete.
	review := map[string]any{"rating": 5, "comment": "great"}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/listings/"+listing.ID+"/reviews", otherToken, review)
	if rec.Code != http.StatusCreated {
		t.Fatalf("review: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, handler, http.MethodPost, "/api/v1/listings/"+listing.ID+"/reviews", otherToken, review); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate review: want 409, got %d", rec.Code)
	}
}
