package models

import "time"

// Club is an admin-defined group of members. The uppercase code is the only
// valid target for allocations, pricing overrides, and membership records.
type Club struct {
	Code      string    `gorm:"column:code;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
