package payments

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

// TransactionDTO is the client view of a payment attempt. The provider's raw
// response stays server side.
type TransactionDTO struct {
	ID               uuid.UUID               `json:"id"`
	TargetType       enums.PayableType       `json:"targetType"`
	TargetID         uuid.UUID               `json:"targetId"`
	Gateway          enums.Gateway           `json:"gateway"`
	GatewayOrderID   string                  `json:"gatewayOrderId"`
	GatewayPaymentID *string                 `json:"gatewayPaymentId,omitempty"`
	Receipt          string                  `json:"receipt"`
	Attempt          int                     `json:"attempt"`
	AmountMinor      int64                   `json:"amountMinor"`
	Currency         enums.Currency          `json:"currency"`
	Method           string                  `json:"method,omitempty"`
	Status           enums.TransactionStatus `json:"status"`
	FailureReason    *string                 `json:"failureReason,omitempty"`
	RefundID         *string                 `json:"refundId,omitempty"`
	ProcessedAt      *time.Time              `json:"processedAt,omitempty"`
	RefundedAt       *time.Time              `json:"refundedAt,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
}

type OrderDTO struct {
	Transaction   *TransactionDTO `json:"transaction"`
	Gateway       enums.Gateway   `json:"gateway"`
	OrderID       string          `json:"orderId"`
	Receipt       string          `json:"receipt"`
	AmountMinor   int64           `json:"amountMinor"`
	Currency      enums.Currency  `json:"currency"`
	ClientPayload map[string]any  `json:"clientPayload,omitempty"`
}

type CompletionDTO struct {
	Transaction *TransactionDTO `json:"transaction"`
	Outcome     Outcome         `json:"outcome"`
}

type RefundDTO struct {
	Transaction *TransactionDTO `json:"transaction"`
	RefundID    string          `json:"refundId"`
	Status      string          `json:"status"`
}

func ToTransactionDTO(t *models.PaymentTransaction) *TransactionDTO {
	if t == nil {
		return nil
	}
	return &TransactionDTO{
		ID:               t.ID,
		TargetType:       t.TargetType,
		TargetID:         t.TargetID,
		Gateway:          t.Gateway,
		GatewayOrderID:   t.GatewayOrderID,
		GatewayPaymentID: t.GatewayPaymentID,
		Receipt:          t.Receipt,
		Attempt:          t.Attempt,
		AmountMinor:      t.AmountMinor,
		Currency:         t.Currency,
		Method:           t.Method,
		Status:           t.Status,
		FailureReason:    t.FailureReason,
		RefundID:         t.RefundID,
		ProcessedAt:      t.ProcessedAt,
		RefundedAt:       t.RefundedAt,
		CreatedAt:        t.CreatedAt,
	}
}

func ToOrderDTO(r *OrderResult) OrderDTO {
	return OrderDTO{
		Transaction:   ToTransactionDTO(r.Transaction),
		Gateway:       r.Gateway,
		OrderID:       r.OrderID,
		Receipt:       r.Receipt,
		AmountMinor:   r.AmountMinor,
		Currency:      r.Currency,
		ClientPayload: r.ClientPayload,
	}
}

func ToCompletionDTO(r *CompletionResult) CompletionDTO {
	return CompletionDTO{Transaction: ToTransactionDTO(r.Transaction), Outcome: r.Outcome}
}

func ToRefundDTO(r *RefundResult) RefundDTO {
	return RefundDTO{Transaction: ToTransactionDTO(r.Transaction), RefundID: r.RefundID, Status: string(r.Status)}
}
