package domain

import "time"

type PropertyStatus string

const (
	StatusPending  PropertyStatus = "pending"
	StatusActive   PropertyStatus = "active"
	StatusApproved PropertyStatus = "approved"
	StatusRejected PropertyStatus = "rejected"
	StatusSold     PropertyStatus = "sold"
)

// ListedStatuses are the statuses visible to buyers.
var ListedStatuses = []PropertyStatus{StatusActive, StatusApproved}

func (s PropertyStatus) IsListed() bool {
	return s == StatusActive || s == StatusApproved
}

type HalalStatus string

const (
	HalalNone     HalalStatus = "none"
	HalalPending  HalalStatus = "pending"
	HalalApproved HalalStatus = "approved"
	HalalRejected HalalStatus = "rejected"
)

type PropertyType string

const (
	TypeApartment  PropertyType = "apartment"
	TypeStudio     PropertyType = "studio"
	TypeHouse      PropertyType = "house"
	TypeCommercial PropertyType = "commercial"
	TypeLand       PropertyType = "land"
)

var PropertyTypes = []PropertyType{TypeApartment, TypeStudio, TypeHouse, TypeCommercial, TypeLand}

type Property struct {
	ID               string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID          string         `gorm:"type:varchar(36);index" json:"ownerId"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Price            float64        `gorm:"not null;index" json:"price"`
	Bedrooms         int            `gorm:"not null;default:0" json:"bedrooms"`
	Bathrooms        int            `gorm:"not null;default:0" json:"bathrooms"`
	AreaSqm          float64        `json:"areaSqm"`
	PropertyType     PropertyType   `gorm:"type:varchar(20);index;not null" json:"propertyType"`
	City             string         `gorm:"type:varchar(100)" json:"city"`
	District         string         `gorm:"type:varchar(100);index" json:"district"`
	Address          string         `gorm:"type:varchar(255)" json:"address"`
	Latitude         *float64       `json:"latitude,omitempty"`
	Longitude        *float64       `json:"longitude,omitempty"`
	ImageURLs        []string       `gorm:"serializer:json;type:text" json:"imageUrls"`
	Status           PropertyStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	ModerationReason string         `gorm:"type:text" json:"moderationReason,omitempty"`
	IsVerified       bool           `gorm:"not null;default:false" json:"isVerified"`
	IsHalalAvailable bool           `gorm:"not null;default:false" json:"isHalalAvailable"`
	HalalStatus      HalalStatus    `gorm:"type:varchar(20);not null;default:'none'" json:"halalStatus"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (Property) TableName() string {
	return "properties"
}

// HasHalalFinancing reports whether the listing can be bought with halal financing.
func (p Property) HasHalalFinancing() bool {
	return p.IsHalalAvailable && p.HalalStatus == HalalApproved
}

func (p Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type ModerationInput struct {
	Status PropertyStatus `json:"status" validate:"required,oneof=approved rejected"`
	Reason string         `json:"reason" validate:"max=1000"`
}

type HalalReviewInput struct {
	Status HalalStatus `json:"status" validate:"required,oneof=approved rejected"`
}
