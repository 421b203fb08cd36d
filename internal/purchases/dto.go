package purchases

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseDTO struct {
	ID              uuid.UUID           `json:"id"`
	Reference       string              `json:"reference"`
	VideoID         uuid.UUID           `json:"videoId"`
	PurchaseType    enums.PurchaseType  `json:"purchaseType"`
	BaseAmount      decimal.Decimal     `json:"baseAmount"`
	TaxAmount       decimal.Decimal     `json:"taxAmount"`
	FinalAmount     decimal.Decimal     `json:"finalAmount"`
	Currency        enums.Currency      `json:"currency"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	AccessExpiresAt *time.Time          `json:"accessExpiresAt,omitempty"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

type AccessDTO struct {
	PurchaseID   uuid.UUID          `json:"purchaseId"`
	PurchaseType enums.PurchaseType `json:"purchaseType"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty"`
}

func ToDTO(p *models.VideoPurchase) PurchaseDTO {
	return PurchaseDTO{
		ID:              p.ID,
		Reference:       p.Reference,
		VideoID:         p.VideoID,
		PurchaseType:    p.PurchaseType,
		BaseAmount:      p.BaseAmount,
		TaxAmount:       p.TaxAmount,
		FinalAmount:     p.FinalAmount,
		Currency:        p.Currency,
		PaymentStatus:   p.PaymentStatus,
		ExpiresAt:       p.ExpiresAt,
		AccessExpiresAt: p.AccessExpiresAt,
		CompletedAt:     p.CompletedAt,
		CreatedAt:       p.CreatedAt,
	}
}

func ToAccessDTO(a *Access) AccessDTO {
	return AccessDTO{PurchaseID: a.PurchaseID, PurchaseType: a.PurchaseType, ExpiresAt: a.ExpiresAt}
}
