package model

import (
	"time"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"gorm.io/gorm"
)

type Reader struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Username  string    `gorm:"uniqueIndex:readers_org_id_username;not null"`
	Name      string    `gorm:"not null"`
	OrgID     string    `gorm:"uniqueIndex:readers_org_id_username;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type ReaderList []Reader

func (r *Reader) ToApiResource() api.Reader {
	return api.Reader{
		ID:       r.ID,
		Username: r.Username,
		Name:     r.Name,
		Active:   r.Active,
	}
}

func (rl ReaderList) ToApiResource() []api.Reader {
	readers := make([]api.Reader, len(rl))
	for i := range rl {
		readers[i] = rl[i].ToApiResource()
	}
	return readers
}
