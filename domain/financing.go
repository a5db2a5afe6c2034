package domain

import "time"

// FinancingResult is the output of the halal financing calculator. An
// all-zero value means financing is not applicable to the inputs.
type FinancingResult struct {
	TotalCost              float64 `json:"totalCost"`
	RequiredMonthlyPayment float64 `json:"requiredMonthlyPayment"`
	FinancingAmount        float64 `json:"financingAmount"`
}

// IsZero reports the "no financing needed/possible" sentinel.
func (r FinancingResult) IsZero() bool {
	return r.TotalCost == 0 && r.RequiredMonthlyPayment == 0 && r.FinancingAmount == 0
}

type FinancingInput struct {
	CashAvailable float64 `json:"cashAvailable"`
	PropertyPrice float64 `json:"propertyPrice"`
	// PeriodMonths arrives as any JSON number; see service.WholeMonths.
	PeriodMonths  float64 `json:"periodMonths"`
}

type PeriodOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// FinancingPlan is one period option evaluated against a monthly budget.
type FinancingPlan struct {
	PeriodMonths           int     `json:"periodMonths"`
	Label                  string  `json:"label"`
	TotalCost              float64 `json:"totalCost"`
	RequiredMonthlyPayment float64 `json:"requiredMonthlyPayment"`
	FinancingAmount        float64 `json:"financingAmount"`
	MonthlyFormatted       string  `json:"monthlyFormatted"`
	Affordable             bool    `json:"affordable"`
}

type FinancingPlansResult struct {
	Offerable          bool            `json:"offerable"`
	MinimumDownPayment float64         `json:"minimumDownPayment"`
	RecommendedPeriod  int             `json:"recommendedPeriod,omitempty"`
	Plans              []FinancingPlan `json:"plans"`
}

type FinancingRequestStatus string

const (
	FinancingPending  FinancingRequestStatus = "pending"
	FinancingApproved FinancingRequestStatus = "approved"
	FinancingRejected FinancingRequestStatus = "rejected"
)

func (s FinancingRequestStatus) IsValid() bool {
	switch s {
	case FinancingPending, FinancingApproved, FinancingRejected:
		return true
	}
	return false
}

// FinancingRequest is a buyer's application for halal financing on a listing.
// The calculator output is frozen at submission time.
type FinancingRequest struct {
	ID                     string                 `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID                 string                 `gorm:"type:varchar(36);index;not null" json:"userId"`
	PropertyID             string                 `gorm:"type:varchar(36);index;not null" json:"propertyId"`
	CashAvailable          float64                `gorm:"not null" json:"cashAvailable"`
	PropertyPrice          float64                `gorm:"not null" json:"propertyPrice"`
	PeriodMonths           int                    `gorm:"not null" json:"periodMonths"`
	FinancingAmount        float64                `gorm:"not null" json:"financingAmount"`
	TotalCost              float64                `gorm:"not null" json:"totalCost"`
	RequiredMonthlyPayment float64                `gorm:"not null" json:"requiredMonthlyPayment"`
	Status                 FinancingRequestStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	ReviewNote             string                 `gorm:"type:text" json:"reviewNote,omitempty"`
	ReviewedBy             string                 `gorm:"type:varchar(36)" json:"reviewedBy,omitempty"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

func (FinancingRequest) TableName() string {
	return "financing_requests"
}

// FinancingRequestView adds display strings to a stored request.
type FinancingRequestView struct {
	FinancingRequest
	TotalCostFormatted      string `json:"totalCostFormatted"`
	MonthlyPaymentFormatted string `json:"monthlyPaymentFormatted"`
}

type CreateFinancingRequestInput struct {
	PropertyID    string  `json:"propertyId" validate:"required,max=36"`
	CashAvailable float64 `json:"cashAvailable" validate:"gte=0"`
	PeriodMonths  int     `json:"periodMonths" validate:"required,oneof=6 9 12 18 24"`
}

type ReviewFinancingRequestInput struct {
	Status FinancingRequestStatus `json:"status" validate:"required,oneof=approved rejected"`
	Note   string                 `json:"note" validate:"max=1000"`
}
