package models

import "time"

// SubscriberModel is one newsletter subscriber. Email and ConfirmKey are
// unique among live rows; the confirm key is regenerated on every fresh
// subscription and never reused. Rows are hard-deleted on resubscription so
// stale data cannot leak into the replacement record.
type SubscriberModel struct {
	Base
	Email          string                 `json:"email"            gorm:"uniqueIndex;size:191;not null"`
	ConfirmKey     string                 `json:"-"                gorm:"uniqueIndex;size:64;not null"`
	SubscribedAt   time.Time              `json:"subscribed_at"`
	Confirmed      bool                   `json:"confirmed"        gorm:"default:false"`
	ConfirmedAt    *time.Time             `json:"confirmed_at"`
	Active         bool                   `json:"active"           gorm:"default:true"`
	UnsubscribedAt *time.Time             `json:"unsubscribed_at"`
	Fields         []SubscriberFieldModel `json:"fields"           gorm:"foreignKey:SubscriberID;references:ID;constraint:OnDelete:CASCADE"`
}

func (SubscriberModel) TableName() string { return "subscribers" }

// SubscriberFieldModel is one free-form extra attribute captured at
// subscription time. The autoincrement ID preserves insertion order. Fields
// are immutable: they are only inserted with the parent subscriber and
// deleted wholesale with it.
type SubscriberFieldModel struct {
	ID           uint   `json:"-"     gorm:"primaryKey;autoIncrement"`
	SubscriberID string `json:"-"     gorm:"type:char(36);index;not null"`
	Name         string `json:"name"  gorm:"size:64;not null"`
	Value        string `json:"value" gorm:"size:255"`
}

func (SubscriberFieldModel) TableName() string { return "subscriber_fields" }
