package realtime

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestHubDeliversToUserOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(quietLogger())
	go hub.Run(ctx)

	ana, bob := uuid.New(), uuid.New()
	a := &Client{ID: "a", UserID: ana, Send: make(chan []byte, 4)}
	b := &Client{ID: "b", UserID: bob, Send: make(chan []byte, 4)}
	require.True(t, hub.RegisterClient(a))
	require.True(t, hub.RegisterClient(b))
	waitFor(t, func() bool { return hub.Connections() == 2 })

	n := &HubNotifier{Hub: hub, Log: quietLogger()}
	n.Notify(ctx, ana, EventNewMessage, map[string]string{"subject": "hi"})

	select {
	case raw := <-a.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, EventNewMessage, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Empty(t, b.Send)

	hub.UnregisterClient(a)
	waitFor(t, func() bool { return hub.Connections() == 1 })
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHubStopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(quietLogger())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &Client{ID: "c", UserID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.RegisterClient(c))
	cancel()
	<-stopped

	_, open := <-c.Send
	assert.False(t, open)
	assert.False(t, hub.RegisterClient(&Client{ID: "d", Send: make(chan []byte)}))
	hub.UnregisterClient(c)
}
