package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"

	"github.com/opchan/core/message"
	"github.com/opchan/core/replica"
	"github.com/opchan/core/replica/storage/memstore"
)

type alwaysVerifier struct{}

func (alwaysVerifier) VerifyWithReason(e *message.Envelope) (bool, []string) { return true, nil }

const testAuthor = "11111111-1111-4111-8111-111111111111"

func newTestReplica(t *testing.T) *replica.Replica {
	t.Helper()
	rep, err := replica.Open(memstore.New())
	if err != nil {
		t.Fatalf("open replica: %v", err)
	}
	cell := &message.Envelope{
		Kind: message.KindCell, ID: "c1", TimestampMs: 1000, Author: testAuthor,
		Signature: []byte("sig"), DevicePubKey: []byte("0123456789012345678901234567890"),
		Cell: &message.CellPayload{Name: "General", Description: "general chat"},
	}
	raw, err := message.Marshal(cell)
	if err != nil {
		t.Fatalf("marshal cell: %v", err)
	}
	if out := rep.ApplyMessage(raw, alwaysVerifier{}); out.Result != replica.Accepted {
		t.Fatalf("apply cell: %+v", out.ValidationReport)
	}

	post := &message.Envelope{
		Kind: message.KindPost, ID: "p1", TimestampMs: 2000, Author: testAuthor,
		Signature: []byte("sig"), DevicePubKey: []byte("0123456789012345678901234567890"),
		Post: &message.PostPayload{CellID: "c1", Title: "Hello", Body: "World"},
	}
	raw, err = message.Marshal(post)
	if err != nil {
		t.Fatalf("marshal post: %v", err)
	}
	if out := rep.ApplyMessage(raw, alwaysVerifier{}); out.Result != replica.Accepted {
		t.Fatalf("apply post: %+v", out.ValidationReport)
	}
	return rep
}

func TestListAndGetHandlers(t *testing.T) {
	rep := newTestReplica(t)
	srv := httptest.NewServer(New(Config{}, rep, nil))
	defer srv.Close()

	var cells []cellView
	getJSON(t, srv.URL+"/v1/cells", nil, &cells)
	if len(cells) != 1 || cells[0].ID != "c1" {
		t.Fatalf("unexpected cells: %+v", cells)
	}

	var posts []postView
	getJSON(t, srv.URL+"/v1/posts", nil, &posts)
	if len(posts) != 1 || posts[0].Title != "Hello" {
		t.Fatalf("unexpected posts: %s", spew.Sdump(posts))
	}

	var post postView
	getJSON(t, srv.URL+"/v1/posts/p1", nil, &post)
	if post.Body != "World" {
		t.Fatalf("unexpected post: %+v", post)
	}

	resp := doGet(t, srv.URL+"/v1/posts/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAuthGateRejectsMissingOrInvalidToken(t *testing.T) {
	rep := newTestReplica(t)
	secret := []byte("supersecretkeysupersecretkey123456")
	srv := httptest.NewServer(New(Config{JWTSecret: secret}, rep, nil))
	defer srv.Close()

	resp := doGet(t, srv.URL+"/v1/cells", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with no token, got %d", resp.StatusCode)
	}

	resp = doGet(t, srv.URL+"/v1/cells", map[string]string{"Authorization": "Bearer not-a-jwt"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with an invalid token, got %d", resp.StatusCode)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	resp = doGet(t, srv.URL+"/v1/cells", map[string]string{"Authorization": "Bearer " + signed})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", resp.StatusCode)
	}
}

func TestStreamForwardsPendingChange(t *testing.T) {
	rep := newTestReplica(t)
	srv := httptest.NewServer(New(Config{}, rep, nil))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	rep.MarkPending("m1")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev streamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "pending" || ev.MessageID != "m1" || !ev.Pending {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func doGet(t *testing.T, url string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, url string, headers map[string]string, v interface{}) {
	t.Helper()
	resp := doGet(t, url, headers)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
