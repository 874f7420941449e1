package payment

import (
	"time"

	"gorm.io/datatypes"
)

// GatewayMetadata stores the encoded gateway record for one order.
type GatewayMetadata struct {
	OrderID   int64     `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	Data      string    `gorm:"column:data;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (GatewayMetadata) TableName() string { return "order_gateway_metadata" }

type NotificationStatus string

const (
	NotificationStatusReceived     NotificationStatus = "received"
	NotificationStatusHandled      NotificationStatus = "handled"
	NotificationStatusHandleFailed NotificationStatus = "handle_failed"
)

// NotificationLog is the raw audit copy of an inbound webhook delivery.
type NotificationLog struct {
	ID             string             `gorm:"column:id;type:uuid;primaryKey"`
	TraceID        string             `gorm:"column:trace_id;type:varchar(128)"`
	EventType      string             `gorm:"column:event_type;type:varchar(64)"`
	PaymentID      string             `gorm:"column:payment_id;type:varchar(64);index"`
	ConversationID string             `gorm:"column:conversation_id;type:varchar(64);index"`
	Signature      string             `gorm:"column:signature;type:varchar(128)"`
	Payload        datatypes.JSON     `gorm:"column:payload;not null"`
	Status         NotificationStatus `gorm:"column:status;type:varchar(32);not null;index"`
	FailureReason  *string            `gorm:"column:failure_reason"`
	Attempts       int                `gorm:"column:attempts;not null;default:0"`
	ReceivedAt     time.Time          `gorm:"column:received_at;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (NotificationLog) TableName() string { return "payment_notification_log" }
