package server_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"spear/internal/model"
	"spear/internal/repository/memory"
	"spear/internal/service/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	s := server.NewHttpServer(store, store, store, nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func b64Key() string {
	return base64.StdEncoding.EncodeToString(make([]byte, model.KeySize))
}

func registerUser(t *testing.T, ts *httptest.Server, username string) model.RegisterResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/register", model.RegisterRequest{
		Username:         username,
		PublicKey:        b64Key(),
		SigningPublicKey: b64Key(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %q: status %d", username, resp.StatusCode)
	}
	return decode[model.RegisterResponse](t, resp)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	reg := registerUser(t, ts, "alice")
	if reg.Username != "alice" || reg.ID == "" {
		t.Fatalf("unexpected response %+v", reg)
	}

	// Duplicate username.
	resp := postJSON(t, ts.URL+"/api/register", model.RegisterRequest{
		Username: "alice", PublicKey: b64Key(), SigningPublicKey: b64Key(),
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", resp.StatusCode)
	}

	// Wrong key length.
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	resp = postJSON(t, ts.URL+"/api/register", model.RegisterRequest{
		Username: "bob", PublicKey: short, SigningPublicKey: b64Key(),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short key: status %d, want 400", resp.StatusCode)
	}

	// Missing fields.
	resp = postJSON(t, ts.URL+"/api/register", model.RegisterRequest{Username: "carol"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing keys: status %d, want 400", resp.StatusCode)
	}
}

func TestGetUser(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")

	resp, err := http.Get(ts.URL + "/api/users/alice")
	if err != nil {
		t.Fatalf("GET user: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	user := decode[model.UserResponse](t, resp)
	if user.Username != "alice" || user.PublicKey != b64Key() {
		t.Fatalf("unexpected user %+v", user)
	}

	resp, err = http.Get(ts.URL + "/api/users/nobody")
	if err != nil {
		t.Fatalf("GET unknown user: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown user: status %d, want 404", resp.StatusCode)
	}
}

func TestListUsers_NewestFirst(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")

	resp, err := http.Get(ts.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET users: %v", err)
	}
	defer resp.Body.Close()
	list := decode[model.UserListResponse](t, resp)
	if len(list.Users) != 2 || list.Users[0].Username != "bob" {
		t.Fatalf("unexpected list %+v", list.Users)
	}
}

func TestSession_CanonicalAcrossArgumentOrder(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")

	resp := postJSON(t, ts.URL+"/api/sessions", model.SessionRequest{Username1: "alice", Username2: "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	s1 := decode[model.SessionResponse](t, resp)
	if s1.NeedsRotation || s1.CounterForLow != 0 || s1.CounterForHigh != 0 {
		t.Fatalf("fresh session: %+v", s1)
	}

	resp = postJSON(t, ts.URL+"/api/sessions", model.SessionRequest{Username1: "bob", Username2: "alice"})
	s2 := decode[model.SessionResponse](t, resp)
	if s1.SessionID != s2.SessionID {
		t.Fatalf("session id changed with argument order: %s vs %s", s1.SessionID, s2.SessionID)
	}

	resp = postJSON(t, ts.URL+"/api/sessions", model.SessionRequest{Username1: "alice", Username2: "nobody"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown participant: status %d, want 404", resp.StatusCode)
	}
}

func advance(t *testing.T, ts *httptest.Server, u1, u2, from string, counter int64) *http.Response {
	t.Helper()
	return postJSON(t, ts.URL+"/api/sessions/counter", model.CounterRequest{
		Username1: u1, Username2: u2, Counter: &counter, FromUser: from,
	})
}

func TestCounter_ReplayRejected(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")
	postJSON(t, ts.URL+"/api/sessions", model.SessionRequest{Username1: "alice", Username2: "bob"})

	resp := advance(t, ts, "alice", "bob", "alice", 5)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance to 5: status %d", resp.StatusCode)
	}
	ok := decode[model.CounterResponse](t, resp)
	if !ok.Success || ok.Counter != 5 || ok.NeedsRotation {
		t.Fatalf("unexpected response %+v", ok)
	}

	resp = advance(t, ts, "alice", "bob", "alice", 5)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("replay: status %d, want 400", resp.StatusCode)
	}
	body := decode[model.ErrorResponse](t, resp)
	if body.ExpectedCounter == nil || *body.ExpectedCounter != 6 {
		t.Fatalf("replay body %+v, want expectedCounter 6", body)
	}
	if body.ReceivedCounter == nil || *body.ReceivedCounter != 5 {
		t.Fatalf("replay body %+v, want receivedCounter 5", body)
	}
}

func TestCounter_SenderSlotFromIdsNotArgumentOrder(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")
	postJSON(t, ts.URL+"/api/sessions", model.SessionRequest{Username1: "alice", Username2: "bob"})

	// Same sender, both argument orders: the slot must be the same.
	if resp := advance(t, ts, "alice", "bob", "alice", 1); resp.StatusCode != http.StatusOK {
		t.Fatalf("advance: status %d", resp.StatusCode)
	}
	if resp := advance(t, ts, "bob", "alice", "alice", 1); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("swapped-order replay: status %d, want 400", resp.StatusCode)
	}
	if resp := advance(t, ts, "bob", "alice", "alice", 2); resp.StatusCode != http.StatusOK {
		t.Fatalf("swapped-order advance: status %d", resp.StatusCode)
	}

	// The other participant's slot is independent.
	if resp := advance(t, ts, "alice", "bob", "bob", 1); resp.StatusCode != http.StatusOK {
		t.Fatalf("bob advance: status %d", resp.StatusCode)
	}

	// A stranger to the pair is rejected before touching the ledger.
	registerUser(t, ts, "carol")
	if resp := advance(t, ts, "alice", "bob", "carol", 3); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("outsider fromUser: status %d, want 400", resp.StatusCode)
	}
}

func TestCounter_RotationFlag(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")
	postJSON(t, ts.URL+"/api/sessions", model.SessionRequest{Username1: "alice", Username2: "bob"})

	resp := advance(t, ts, "alice", "bob", "alice", model.DefaultRotationThreshold)
	ok := decode[model.CounterResponse](t, resp)
	if !ok.NeedsRotation {
		t.Fatalf("rotation not flagged at threshold: %+v", ok)
	}
	if ok.RotationThreshold != model.DefaultRotationThreshold {
		t.Fatalf("threshold = %d", ok.RotationThreshold)
	}
}

func TestCounter_NoSession(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")

	if resp := advance(t, ts, "alice", "bob", "alice", 1); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no session: status %d, want 404", resp.StatusCode)
	}
}

func sendMessage(t *testing.T, ts *httptest.Server, from, to string, counter int64) model.SendMessageResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/messages", model.SendMessageRequest{
		FromUsername:     from,
		ToUsername:       to,
		EncryptedContent: base64.StdEncoding.EncodeToString([]byte("ct")),
		Nonce:            base64.StdEncoding.EncodeToString(make([]byte, model.NonceSize)),
		Signature:        base64.StdEncoding.EncodeToString(make([]byte, 64)),
		Counter:          &counter,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send %s->%s: status %d", from, to, resp.StatusCode)
	}
	return decode[model.SendMessageResponse](t, resp)
}

func TestMessages_DepositFetchAcknowledge(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")

	var ids []string
	for i := 1; i <= 3; i++ {
		ids = append(ids, sendMessage(t, ts, "alice", "bob", int64(i)).ID)
	}

	resp, err := http.Get(ts.URL + "/api/messages/bob")
	if err != nil {
		t.Fatalf("GET messages: %v", err)
	}
	defer resp.Body.Close()
	list := decode[model.MessageListResponse](t, resp)
	if len(list.Messages) != 3 {
		t.Fatalf("pending = %d, want 3", len(list.Messages))
	}
	for i, msg := range list.Messages {
		if msg.ID != ids[i] {
			t.Fatalf("message %d out of deposit order", i)
		}
		if msg.FromUsername != "alice" {
			t.Fatalf("fromUsername = %q", msg.FromUsername)
		}
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/messages/"+ids[0], nil)
	ackResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	ackResp.Body.Close()
	if ackResp.StatusCode != http.StatusOK {
		t.Fatalf("ack: status %d", ackResp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/messages/bob")
	if err != nil {
		t.Fatalf("GET messages after ack: %v", err)
	}
	defer resp.Body.Close()
	list = decode[model.MessageListResponse](t, resp)
	if len(list.Messages) != 2 || list.Messages[0].ID != ids[1] {
		t.Fatalf("acknowledged message reappeared: %+v", list.Messages)
	}
}

func TestMessages_Failures(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")

	counter := int64(1)
	resp := postJSON(t, ts.URL+"/api/messages", model.SendMessageRequest{
		FromUsername:     "alice",
		ToUsername:       "nobody",
		EncryptedContent: base64.StdEncoding.EncodeToString([]byte("ct")),
		Nonce:            base64.StdEncoding.EncodeToString(make([]byte, model.NonceSize)),
		Signature:        base64.StdEncoding.EncodeToString([]byte("sig")),
		Counter:          &counter,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown recipient: status %d, want 404", resp.StatusCode)
	}

	// Nonce of the wrong length.
	resp = postJSON(t, ts.URL+"/api/messages", model.SendMessageRequest{
		FromUsername:     "alice",
		ToUsername:       "alice",
		EncryptedContent: base64.StdEncoding.EncodeToString([]byte("ct")),
		Nonce:            base64.StdEncoding.EncodeToString(make([]byte, 12)),
		Signature:        base64.StdEncoding.EncodeToString([]byte("sig")),
		Counter:          &counter,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad nonce: status %d, want 400", resp.StatusCode)
	}

	// Missing counter.
	resp = postJSON(t, ts.URL+"/api/messages", model.SendMessageRequest{
		FromUsername:     "alice",
		ToUsername:       "alice",
		EncryptedContent: base64.StdEncoding.EncodeToString([]byte("ct")),
		Nonce:            base64.StdEncoding.EncodeToString(make([]byte, model.NonceSize)),
		Signature:        base64.StdEncoding.EncodeToString([]byte("sig")),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing counter: status %d, want 400", resp.StatusCode)
	}

	// Unknown and malformed envelope ids.
	for _, id := range []string{"000000000000000000000000", "not-an-id"} {
		req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/messages/%s", ts.URL, id), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("DELETE %s: %v", id, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("DELETE %s: status %d, want 404", id, resp.StatusCode)
		}
	}

	resp2, err := http.Get(ts.URL + "/api/messages/nobody")
	if err != nil {
		t.Fatalf("GET messages: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown mailbox: status %d, want 404", resp2.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	health := decode[model.HealthResponse](t, resp)
	if health.Status != "ok" || health.Timestamp == "" {
		t.Fatalf("unexpected body %+v", health)
	}
}
