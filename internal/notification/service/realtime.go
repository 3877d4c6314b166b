package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/civicpulse/internal/notification/domain"
)

const realtimeChannelFormat = "report:%s"

// RealtimePublisher pushes a lightweight signal to connected clients. Delivery
// is out of scope; stored notification rows are the source of truth.
type RealtimePublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) RealtimePublisher {
	if client == nil {
		return nil
	}
	return &redisPublisher{client: client}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

type realtimeMessage struct {
	ReportID   string      `json:"report_id"`
	Type       domain.Type `json:"type"`
	Message    string      `json:"message"`
	Recipients int         `json:"recipients"`
	SentAt     time.Time   `json:"sent_at"`
}

func realtimeChannel(reportID snowflake.ID) string {
	return fmt.Sprintf(realtimeChannelFormat, reportID.String())
}

func encodeRealtime(reportID snowflake.ID, typ domain.Type, message string, recipients int, now time.Time) ([]byte, error) {
	return json.Marshal(realtimeMessage{
		ReportID:   reportID.String(),
		Type:       typ,
		Message:    message,
		Recipients: recipients,
		SentAt:     now,
	})
}
