package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth/jwt"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/notifications"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/presence"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func startHub(t *testing.T, origin string) (*Hub, *presence.Registry, *httptest.Server) {
	t.Helper()
	return startHubWith(t, origin, func(*Hub) {})
}

func startHubWith(t *testing.T, origin string, configure func(hub *Hub)) (*Hub, *presence.Registry, *httptest.Server) {
	t.Helper()
	registry := presence.NewRegistry()
	hub := NewHub(registry, origin, logger.Discard{})
	configure(hub)
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, registry, server
}

func dial(t *testing.T, server *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestHub_JoinAndNotify(t *testing.T) {
	_, registry, server := startHub(t, "")
	client := dial(t, server, nil)

	err := client.WriteJSON(Frame{Event: EventJoin, Data: "u1"})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		_, ok := registry.Lookup("u1")
		return ok
	})

	dispatcher := notifications.NewDispatcher(registry, logger.Discard{})
	delivered := dispatcher.Notify(context.Background(), []string{"u1", "u2"}, "New Task Assigned: Logo", notifications.KindInfo)
	if delivered != 1 {
		t.Fatalf("delivered = %d", delivered)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame := struct {
		Event string              `json:"event"`
		Data  notifications.Event `json:"data"`
	}{}
	err = client.ReadJSON(&frame)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Event != notifications.EventNotification || frame.Data.Message != "New Task Assigned: Logo" ||
		frame.Data.Type != notifications.KindInfo {
		t.Errorf("unexpected frame %+v", frame)
	}

	_ = client.Close()
	waitFor(t, func() bool {
		return registry.Online() == 0
	})
}

func TestHub_ReconnectKeepsNewest(t *testing.T) {
	_, registry, server := startHub(t, "")

	first := dial(t, server, nil)
	_ = first.WriteJSON(Frame{Event: EventJoin, Data: "u1"})
	waitFor(t, func() bool { return registry.Online() == 1 })
	firstConn, _ := registry.Lookup("u1")

	second := dial(t, server, nil)
	_ = second.WriteJSON(Frame{Event: EventJoin, Data: "u1"})
	waitFor(t, func() bool {
		conn, ok := registry.Lookup("u1")
		return ok && conn.ID() != firstConn.ID()
	})

	// the stale socket closing must not log the user out
	_ = first.Close()
	time.Sleep(50 * time.Millisecond)
	if _, ok := registry.Lookup("u1"); !ok {
		t.Error("user went offline after the old socket closed")
	}

	_ = second.Close()
	waitFor(t, func() bool { return registry.Online() == 0 })
}

func TestHub_IgnoresMalformedFrames(t *testing.T) {
	_, registry, server := startHub(t, "")
	client := dial(t, server, nil)

	_ = client.WriteJSON(Frame{Event: EventJoin, Data: 42})
	_ = client.WriteJSON(Frame{Event: EventJoin, Data: ""})
	_ = client.WriteJSON(Frame{Event: "typing", Data: "u1"})
	_ = client.WriteJSON(Frame{Event: EventJoin, Data: "u3"})

	waitFor(t, func() bool {
		_, ok := registry.Lookup("u3")
		return ok
	})
	if registry.Online() != 1 {
		t.Errorf("Online() = %d", registry.Online())
	}

	_ = client.Close()
	waitFor(t, func() bool { return registry.Online() == 0 })
}

func signedToken(t *testing.T, secret string, subject string) string {
	t.Helper()
	token, err := jwt.Sign(secret, jwt.New(subject, "Staff", time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

type recordingPresence struct {
	lock  sync.Mutex
	joins []string
}

func (p *recordingPresence) Register(userID string, _ presence.Connection) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.joins = append(p.joins, userID)
}

func (p *recordingPresence) Unregister(presence.Connection) {}

func (p *recordingPresence) Joins() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.joins...)
}

func TestHub_JoinWithToken(t *testing.T) {
	secret := "socket-secret"
	tests := []struct {
		name       string
		require    bool
		data       interface{}
		registered string
	}{
		{"token alone", false, map[string]string{"token": signedToken(t, secret, "u1")}, "u1"},
		{"token and matching id", true, map[string]string{"userId": "u1", "token": signedToken(t, secret, "u1")}, "u1"},
		{"bare id when optional", false, "u1", "u1"},
		{"object id without token when optional", false, map[string]string{"userId": "u1"}, "u1"},
		{"token for another user", false, map[string]string{"userId": "u2", "token": signedToken(t, secret, "u1")}, ""},
		{"token signed elsewhere", false, map[string]string{"token": signedToken(t, "other", "u1")}, ""},
		{"garbage token", false, map[string]string{"userId": "u1", "token": "abc"}, ""},
		{"bare id when required", true, "u1", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			recorder := &recordingPresence{}
			_, _, server := startHubWith(t, "", func(hub *Hub) {
				hub.Presence = recorder
				hub.Verifier = &auth.Verifier{Secret: secret}
				hub.RequireToken = test.require
			})
			client := dial(t, server, nil)
			defer client.Close()

			_ = client.WriteJSON(Frame{Event: EventJoin, Data: test.data})
			// frames are handled in order, so once the marker joined the frame above was decided
			_ = client.WriteJSON(Frame{Event: EventJoin, Data: map[string]string{"token": signedToken(t, secret, "marker")}})
			waitFor(t, func() bool {
				joins := recorder.Joins()
				return len(joins) > 0 && joins[len(joins)-1] == "marker"
			})

			expected := []string{"marker"}
			if test.registered != "" {
				expected = []string{test.registered, "marker"}
			}
			if joins := recorder.Joins(); !reflect.DeepEqual(joins, expected) {
				t.Errorf("joins = %v, want %v", joins, expected)
			}
		})
	}
}

func TestHub_CheckOrigin(t *testing.T) {
	_, _, server := startHub(t, "http://localhost:5173")

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, response, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	if err == nil {
		t.Fatal("foreign origin was accepted")
	}
	if response == nil || response.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected handshake response %v", response)
	}

	client := dial(t, server, http.Header{"Origin": []string{"http://localhost:5173"}})
	_ = client.Close()
}

func TestHub_Close(t *testing.T) {
	hub, registry, server := startHub(t, "")
	client := dial(t, server, nil)
	defer client.Close()

	_ = client.WriteJSON(Frame{Event: EventJoin, Data: "u1"})
	waitFor(t, func() bool { return registry.Online() == 1 })

	hub.Close()
	waitFor(t, func() bool { return registry.Online() == 0 })
}
