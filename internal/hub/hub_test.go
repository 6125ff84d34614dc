package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "fatal", LogFormat: "json"})
}

func proCaller() contracts.Caller {
	return contracts.Caller{UserID: 11, Email: "pro@example.com", Plan: contracts.PlanPro}
}

func freeCaller() contracts.Caller {
	return contracts.Caller{UserID: 12, Email: "free@example.com", Plan: contracts.PlanFree}
}

func scoredEvent(id int64, score int) *contracts.Event {
	return &contracts.Event{
		ID:          id,
		Ticker:      "ACME",
		EventType:   contracts.EventFDAApproval,
		Title:       "FDA approves something",
		ImpactScore: score,
		Direction:   contracts.DirectionPositive,
	}
}

var testUpgrader = websocket.Upgrader{}

// newStreamServer upgrades every request and registers the connection with
// the hub, reporting each Register outcome in order.
func newStreamServer(t *testing.T, h *Hub, caller contracts.Caller) (*httptest.Server, <-chan error) {
	t.Helper()

	results := make(chan error, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		_, rerr := h.Register(caller, conn)
		results <- rerr
		if rerr != nil {
			conn.Close()
		}
	}))
	t.Cleanup(server.Close)

	return server, results
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestRegisterEnforcesPlanCap(t *testing.T) {
	h := New(testLogger())
	server, results := newStreamServer(t, h, freeCaller())

	dial(t, server)
	require.NoError(t, <-results)
	dial(t, server)
	require.NoError(t, <-results)

	dial(t, server)
	err := <-results
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionLimit)

	assert.Equal(t, 2, h.ClientCount())
}

func TestPublishDeliversInOrder(t *testing.T) {
	h := New(testLogger())
	server, results := newStreamServer(t, h, proCaller())

	conn := dial(t, server)
	require.NoError(t, <-results)

	for i := int64(1); i <= 3; i++ {
		h.Publish(scoredEvent(i, 60))
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := int64(1); i <= 3; i++ {
		var msg streamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "event", msg.Type)
		require.NotNil(t, msg.Event)
		assert.Equal(t, i, msg.Event.ID)
	}
}

func TestPublishFiltersBelowPlanThreshold(t *testing.T) {
	h := New(testLogger())
	server, results := newStreamServer(t, h, freeCaller())

	conn := dial(t, server)
	require.NoError(t, <-results)

	h.Publish(scoredEvent(1, 10))
	h.Publish(scoredEvent(2, 80))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, int64(2), msg.Event.ID)
}

func TestSlowConsumerDropsOldestFirst(t *testing.T) {
	h := New(testLogger())
	c := newClient(h, proCaller(), nil)

	for i := 0; i < sendBufferSize+5; i++ {
		c.enqueue(scoredEvent(int64(i), 90))
	}

	assert.Equal(t, 5, c.Dropped())
	assert.Len(t, c.send, sendBufferSize)

	head := <-c.send
	assert.Equal(t, int64(5), head.ID)
}

func TestEnqueueAfterShutdownIsSafe(t *testing.T) {
	h := New(testLogger())
	c := newClient(h, proCaller(), nil)

	c.shutdown()
	c.enqueue(scoredEvent(1, 90))
	c.shutdown()

	assert.Zero(t, c.Dropped())
}

func TestDisconnectFreesCapacity(t *testing.T) {
	h := New(testLogger())
	server, results := newStreamServer(t, h, freeCaller())

	conn1 := dial(t, server)
	require.NoError(t, <-results)
	dial(t, server)
	require.NoError(t, <-results)

	conn1.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	dial(t, server)
	require.NoError(t, <-results)
	assert.Equal(t, 2, h.ClientCount())
}
