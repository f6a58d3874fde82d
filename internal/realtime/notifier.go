package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	EventNewMessage      = "new_message"
	EventProjectMessage  = "project_message"
	EventProjectAssigned = "project_assigned"
	EventProjectStatus   = "project_status"
	EventRatingReceived  = "rating_received"

	publishTimeout = 2 * time.Second
)

// Event is the envelope pushed to websocket clients and published on Redis.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Notifier pushes events to a user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, eventType string, data interface{})
}

// HubNotifier pushes to local websocket connections and publishes the same
// payload on the user's Redis channel for other consumers.
type HubNotifier struct {
	Hub *Hub
	RDB *redis.Client
	Log logrus.FieldLogger
}

func (n *HubNotifier) Notify(ctx context.Context, userID uuid.UUID, eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data, Timestamp: time.Now().Unix()}

	if n.Hub != nil {
		n.Hub.SendToUser(userID, ev)
	}
	if n.RDB == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		n.Log.WithError(err).Warn("marshal notification")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.RDB.Publish(ctx, NotificationChannel(userID.String()), payload).Err(); err != nil {
		n.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"event":   eventType,
		}).Warn("redis publish failed")
	}
}
