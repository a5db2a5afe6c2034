package domain

import "time"

type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitConfirmed VisitStatus = "confirmed"
	VisitDeclined  VisitStatus = "declined"
	VisitCancelled VisitStatus = "cancelled"
)

// IsValid checks if a visit status is recognized.
func (s VisitStatus) IsValid() bool {
	switch s {
	case VisitPending, VisitConfirmed, VisitDeclined, VisitCancelled:
		return true
	}
	return false
}

// VisitRequest is a buyer asking the owner to show a property.
type VisitRequest struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID  string      `gorm:"type:varchar(36);index;not null" json:"propertyId"`
	RequesterID string      `gorm:"type:varchar(36);index;not null" json:"requesterId"`
	OwnerID     string      `gorm:"type:varchar(36);index;not null" json:"ownerId"`
	ScheduledAt time.Time   `gorm:"not null" json:"scheduledAt"`
	Message     string      `gorm:"type:text" json:"message,omitempty"`
	Status      VisitStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (VisitRequest) TableName() string {
	return "visit_requests"
}

type CreateVisitInput struct {
	PropertyID  string    `json:"propertyId" validate:"required,max=36"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Message     string    `json:"message" validate:"max=1000"`
}

type UpdateVisitStatusInput struct {
	Status VisitStatus `json:"status" validate:"required,oneof=confirmed declined"`
}
