package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer upgrades every request and echoes every message it
// receives back to the same connection, recording the Authorization
// header it saw on the upgrade request.
func echoServer(t *testing.T, seenAuth *string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seenAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestSendAndReceiveRoundTrip(t *testing.T) {
	var seenAuth string
	srv := echoServer(t, &seenAuth)
	defer srv.Close()

	c := New(Config{Endpoint: wsURL(srv.URL)})
	defer c.Close()

	received := make(chan []byte, 1)
	c.OnReceive(func(raw []byte) { received <- raw })

	if err := c.Send(context.Background(), []byte("ping")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case raw := <-received:
		if string(raw) != "ping" {
			t.Fatalf("expected echoed 'ping', got %q", raw)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	if !c.IsReady() {
		t.Fatal("expected client to be ready after a successful send")
	}
}

func TestJWTBearerHeaderSentOnDial(t *testing.T) {
	var seenAuth string
	srv := echoServer(t, &seenAuth)
	defer srv.Close()

	secretFile := t.TempDir() + "/jwt.secret"
	if err := os.WriteFile(secretFile, []byte("supersecretkeysupersecretkey123456"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	c := New(Config{Endpoint: wsURL(srv.URL), JWTSecretFile: secretFile})
	defer c.Close()

	if err := c.Send(context.Background(), []byte("hi")); err != nil {
		t.Fatalf("send: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if !strings.HasPrefix(seenAuth, "Bearer ") {
		t.Fatalf("expected a Bearer auth header, got %q", seenAuth)
	}
}
