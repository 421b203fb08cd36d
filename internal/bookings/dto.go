package bookings

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingDTO is the API shape of a booking.
type BookingDTO struct {
	ID             uuid.UUID           `json:"id"`
	Reference      string              `json:"reference"`
	UserID         uuid.UUID           `json:"userId"`
	ShowtimeID     uuid.UUID           `json:"showtimeId"`
	SelectedSeats  []string            `json:"selectedSeats"`
	Customer       Customer            `json:"customer"`
	BaseAmount     decimal.Decimal     `json:"baseAmount"`
	FeesAmount     decimal.Decimal     `json:"feesAmount"`
	TaxAmount      decimal.Decimal     `json:"taxAmount"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
	FinalAmount    decimal.Decimal     `json:"finalAmount"`
	Currency       enums.Currency      `json:"currency"`
	PaymentStatus  enums.PaymentStatus `json:"paymentStatus"`
	BookingStatus  enums.BookingStatus `json:"bookingStatus"`
	TransactionID  *string             `json:"transactionId,omitempty"`
	ExpiresAt      time.Time           `json:"expiresAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
	CancelledAt    *time.Time          `json:"cancelledAt,omitempty"`
	RefundedAt     *time.Time          `json:"refundedAt,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// BookingList wraps a page of bookings plus the next cursor.
type BookingList struct {
	Bookings   []BookingDTO `json:"bookings"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

func ToDTO(b *models.Booking) BookingDTO {
	seats := []string(b.SelectedSeats)
	if seats == nil {
		seats = []string{}
	}
	return BookingDTO{
		ID:            b.ID,
		Reference:     b.Reference,
		UserID:        b.UserID,
		ShowtimeID:    b.ShowtimeID,
		SelectedSeats: seats,
		Customer: Customer{
			Name:  b.CustomerName,
			Email: b.CustomerEmail,
			Phone: b.CustomerPhone,
		},
		BaseAmount:     b.BaseAmount,
		FeesAmount:     b.FeesAmount,
		TaxAmount:      b.TaxAmount,
		DiscountAmount: b.DiscountAmount,
		FinalAmount:    b.FinalAmount,
		Currency:       b.Currency,
		PaymentStatus:  b.PaymentStatus,
		BookingStatus:  b.BookingStatus,
		TransactionID:  b.TransactionID,
		ExpiresAt:      b.ExpiresAt,
		CompletedAt:    b.CompletedAt,
		CancelledAt:    b.CancelledAt,
		RefundedAt:     b.RefundedAt,
		CreatedAt:      b.CreatedAt,
	}
}

func ToListDTO(result *ListResult) BookingList {
	out := BookingList{Bookings: make([]BookingDTO, 0, len(result.Items)), NextCursor: result.Cursor}
	for i := range result.Items {
		out.Bookings = append(out.Bookings, ToDTO(&result.Items[i]))
	}
	return out
}
