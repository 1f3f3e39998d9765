package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClubMembership links a user to a club.
type ClubMembership struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ClubCode  string    `gorm:"column:club_code;not null;uniqueIndex:idx_membership_club_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_membership_club_user"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (m *ClubMembership) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
