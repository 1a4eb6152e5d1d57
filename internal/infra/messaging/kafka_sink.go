package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"boothpos/internal/event"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 集計系サービス向け。statistics 画面に流すイベントだけ書く
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

// キーはブースID。同じブースは同じパーティションに入り順序が保たれる
func (s *KafkaSink) Send(ctx context.Context, evt event.Event) error {
	if !forStatistics(evt) {
		return nil
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.BoothID, 10)),
		Value: body,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "event_id", Value: []byte(evt.ID)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

func forStatistics(evt event.Event) bool {
	for _, sc := range evt.Screens() {
		if sc == event.ScreenStatistics {
			return true
		}
	}
	return false
}
