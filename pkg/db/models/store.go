package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreSettingsID is the key of the single settings document.
const StoreSettingsID = "store_settings"

type StoreSetting struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	Data      json.RawMessage `gorm:"column:data;type:jsonb;not null" json:"data"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (StoreSetting) TableName() string { return "store_settings" }

// Media records an object uploaded to the image bucket.
type Media struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Handle      string     `gorm:"column:handle;not null;uniqueIndex:media_handle_key" json:"handle"`
	ContentType string     `gorm:"column:content_type;not null" json:"contentType"`
	UploadedBy  *uuid.UUID `gorm:"column:uploaded_by;type:uuid" json:"uploadedBy"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Media) TableName() string { return "media" }

func (m *Media) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
