package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backend-tripline/internal/chat"
	"backend-tripline/internal/presence"

	"github.com/google/uuid"
)

// Envelope is the single message shape on the wire, discriminated by the
// Presence flag: presence beats carry user identity, everything else is a
// chat line.
type Envelope struct {
	Presence bool   `json:"presence,omitempty"`
	User     *User  `json:"user,omitempty"`
	ID       string `json:"id,omitempty"`
	Text     string `json:"text,omitempty"`
	TS       int64  `json:"ts,omitempty"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// test seam
var persistChatFn = func(chats *chat.Service, tripID, userID, text string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := chats.Append(ctx, tripID, userID, text); err != nil {
			log.Printf("chat persist error for trip %s: %v", tripID, err)
		}
	}()
}

// handleInbound processes one raw client frame. Malformed frames and chat
// frames without text are dropped without a reply; a broken or hostile
// client never takes the room down. The sender identity always comes from
// the authenticated session, whatever the payload claims.
func handleInbound(hub *Hub, tracker *presence.Tracker, chats *chat.Service, tripID, userID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	if env.Presence {
		if env.User == nil {
			return
		}
		member := presence.Member{UserID: userID, Name: env.User.Name, Color: env.User.Color}
		tracker.Heartbeat(tripID, member)

		out := Envelope{
			Presence: true,
			User:     &User{ID: member.UserID, Name: member.Name, Color: member.Color},
		}
		payload, err := json.Marshal(out)
		if err != nil {
			return
		}
		hub.Broadcast(tripID, payload)
		return
	}

	if env.Text == "" {
		return
	}

	out := Envelope{
		ID:   uuid.NewString(),
		Text: env.Text,
		TS:   time.Now().UnixMilli(),
		User: &User{ID: userID},
	}
	if env.User != nil {
		out.User.Name = env.User.Name
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return
	}

	// Broadcast first so the room stays responsive; the database write
	// happens off the hot path.
	hub.Broadcast(tripID, payload)
	persistChatFn(chats, tripID, userID, env.Text)
}
