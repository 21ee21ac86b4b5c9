package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type EventSubscriber interface {
	Available() bool
	Subscribe(ctx context.Context, channel string) *redis.PubSub
}

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ModelEvents streams model_updated events to a websocket client until it
// disconnects. Each message is the JSON event as published by the actor.
func ModelEvents(events EventSubscriber, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "ws_model").Logger()

	return func(c *gin.Context) {
		if events == nil || !events.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model events require redis"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := events.Subscribe(ctx, services.ModelEventsChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					log.Debug().Err(err).Msg("ws write failed")
					return
				}
			}
		}
	}
}
