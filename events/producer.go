package events

import (
	"encoding/json"
	"log"
	"time"

	"FreshCart/config"

	"github.com/IBM/sarama"
)

// Auth lifecycle event types.
const (
	TypeSignUp          = "auth.signup"
	TypeSignIn          = "auth.signin"
	TypeSignOut         = "auth.signout"
	TypeSessionExchange = "auth.session_exchange"
)

// AuthEvent 认证生命周期事件，按会话ID分区
type AuthEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer returns nil (not an error) when no brokers are configured;
// a nil Producer drops events. Auth flows must not depend on Kafka being
// up.
func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	// SCRAM 机制按配置选择，未配置时走 PLAIN
	var (
		saramaCfg *sarama.Config
		err       error
	)
	switch cfg.SASLMechanism {
	case "SCRAM-SHA-256", "SCRAM-SHA-512":
		saramaCfg, err = NewSaramaConfigWithSCRAM(cfg, cfg.SASLMechanism)
	default:
		saramaCfg, err = NewSaramaConfig(cfg)
	}
	if err != nil {
		return nil, err
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "freshcart.auth"
	}
	return &Producer{producer: producer, topic: topic}, nil
}

// Emit publishes an auth lifecycle event. Failures are logged, never
// propagated: events are observability, not control flow.
func (p *Producer) Emit(eventType, sessionID, userID, email string) {
	if p == nil {
		return
	}
	event := AuthEvent{
		Type:      eventType,
		SessionID: sessionID,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now().Unix(),
	}

	// 序列化消息
	jsonValue, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal auth event: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(sessionID),
		Value: sarama.ByteEncoder(jsonValue),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		log.Printf("Failed to send auth event: %v", err)
		return
	}

	log.Printf("Auth event %s sent to partition %d at offset %d", eventType, partition, offset)
}

func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}

// OriginInterceptor 给所有出站消息打上来源标记
type OriginInterceptor struct{}

func (i *OriginInterceptor) OnSend(msg *sarama.ProducerMessage) {
	msg.Headers = append(msg.Headers, sarama.RecordHeader{
		Key:   []byte("origin"),
		Value: []byte("freshcart-bff"),
	})
}

func NewOriginInterceptor() *OriginInterceptor {
	return &OriginInterceptor{}
}
