package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"novus-backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestClient(h *Hub, buffer int) *Client {
	c := NewClient(h, nil, primitive.NewObjectID())
	c.send = make(chan []byte, buffer)
	h.register(c)
	return c
}

func receive(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	default:
		t.Fatalf("client %s received nothing", c.id)
		return Frame{}
	}
}

func TestRelay_SkipsSender(t *testing.T) {
	h := NewHub(nil)
	sender, a, b := newTestClient(h, 4), newTestClient(h, 4), newTestClient(h, 4)

	h.relay(sender, []byte(`{"event":"new-post","data":{"_id":"p1"}}`))

	for _, c := range []*Client{a, b} {
		f := receive(t, c)
		assert.Equal(t, EventNewPost, f.Event)
		assert.JSONEq(t, `{"_id":"p1"}`, string(f.Data))
	}
	assert.Empty(t, sender.send)
}

func TestRelay_DropsUnknownAndMalformed(t *testing.T) {
	h := NewHub(nil)
	sender, other := newTestClient(h, 4), newTestClient(h, 4)

	h.relay(sender, []byte(`{"event":"typing","data":{}}`))
	h.relay(sender, []byte(`not json`))

	assert.Empty(t, other.send)
}

func TestBroadcast_FullBufferDropsFrame(t *testing.T) {
	collector := metrics.NewCollector("test")
	h := NewHub(collector)
	slow, fast := newTestClient(h, 1), newTestClient(h, 4)

	n, err := h.Broadcast(EventNewChat, json.RawMessage(`1`), Everyone())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = h.Broadcast(EventNewChat, json.RawMessage(`2`), Everyone())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.EventsDropped))
	assert.Equal(t, 2, h.ConnectionCount())
}

func TestUnregister_IsIdempotent(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient(h, 1)

	h.unregister(c)
	h.unregister(c)

	assert.Equal(t, 0, h.ConnectionCount())
	_, open := <-c.send
	assert.False(t, open)
}

func TestIsRelayable(t *testing.T) {
	for _, e := range []Event{EventNewPost, EventEditPost, EventDeletePost, EventNewMessage, EventNewChat, EventDeleteChat} {
		assert.True(t, IsRelayable(e), e)
	}
	assert.False(t, IsRelayable("connect"))
}

func TestWebsocketRoundTrip(t *testing.T) {
	h := NewHub(nil)
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(h, conn, primitive.NewObjectID()).Serve()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	alice, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer bob.Close()

	require.Eventually(t, func() bool { return h.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, alice.WriteJSON(Frame{Event: EventNewMessage, Data: json.RawMessage(`{"content":"hi"}`)}))

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Frame
	require.NoError(t, bob.ReadJSON(&got))
	assert.Equal(t, EventNewMessage, got.Event)
	assert.JSONEq(t, `{"content":"hi"}`, string(got.Data))

	alice.Close()
	require.Eventually(t, func() bool { return h.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	u := NewUpgrader([]string{"http://localhost:5173"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, u.CheckOrigin(req))
	req.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, u.CheckOrigin(req))
}
