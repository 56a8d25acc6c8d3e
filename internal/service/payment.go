package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/enum"
)

// Payment status is a free axis: staff can set any of the five values from
// any other, no transition table applies.

func isValidPaymentStatus(s string) bool {
	switch s {
	case enum.PaymentStatusUnpaid, enum.PaymentStatusWaitingPayment,
		enum.PaymentStatusForVerification, enum.PaymentStatusPaid,
		enum.PaymentStatusRejected:
		return true
	}
	return false
}

// SetPaymentStatusRequest is the staff-side payment verification input.
type SetPaymentStatusRequest struct {
	OrderID       uuid.UUID
	PaymentStatus string
	StaffID       uuid.UUID
}

// SetPaymentStatus records the staff's payment verification decision and
// notifies the customer.
func (s *OrderService) SetPaymentStatus(ctx context.Context, req SetPaymentStatusRequest) (database.Order, error) {
	if !isValidPaymentStatus(req.PaymentStatus) {
		return database.Order{}, ErrInvalidPaymentStatus
	}

	order, err := s.store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
		ID:            req.OrderID,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("update payment status: %w", err)
	}

	orderNo := FormatOrderNo(order.OrderNo)
	s.notifier.NotifyUser(ctx, order.CustomerID,
		fmt.Sprintf("Order %s Update: Payment status is now %s.", orderNo, order.PaymentStatus),
		enum.NotificationTypeOrder)
	s.notifier.LogActivity(ctx, database.CreateActivityLogParams{
		UserID:      pgtype.UUID{Bytes: req.StaffID, Valid: true},
		UserRole:    enum.UserRoleStaff,
		Category:    enum.ActivityCategoryOrder,
		Action:      "payment_status_updated",
		Description: pgtype.Text{String: fmt.Sprintf("Order %s payment marked %s", orderNo, order.PaymentStatus), Valid: true},
		OrderID:     pgtype.UUID{Bytes: order.ID, Valid: true},
	})
	return order, nil
}

// UploadPaymentProofRequest attaches a customer's transfer receipt.
type UploadPaymentProofRequest struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	ProofURL   string
}

// UploadPaymentProof stores the proof reference and moves the payment to
// for_verification. Only gcash orders carry manual proof.
func (s *OrderService) UploadPaymentProof(ctx context.Context, req UploadPaymentProofRequest) (database.Order, error) {
	if req.ProofURL == "" {
		return database.Order{}, &ValidationError{Fields: map[string]string{"payment_proof": "required"}}
	}

	order, err := s.store.GetOrderForCustomer(ctx, database.GetOrderForCustomerParams{
		ID:         req.OrderID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.PaymentMethod != enum.PaymentMethodGCash {
		return database.Order{}, ErrInvalidPaymentMethod
	}

	updated, err := s.store.AttachPaymentProof(ctx, database.AttachPaymentProofParams{
		ID:            order.ID,
		PaymentProof:  pgtype.Text{String: req.ProofURL, Valid: true},
		PaymentStatus: enum.PaymentStatusForVerification,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("attach payment proof: %w", err)
	}

	orderNo := FormatOrderNo(updated.OrderNo)
	s.notifier.NotifyStaff(ctx,
		fmt.Sprintf("Order %s has a payment proof awaiting verification.", orderNo),
		enum.NotificationTypeOrder)
	s.notifier.LogActivity(ctx, database.CreateActivityLogParams{
		UserID:      pgtype.UUID{Bytes: req.CustomerID, Valid: true},
		UserRole:    enum.UserRoleCustomer,
		Category:    enum.ActivityCategoryOrder,
		Action:      "payment_proof_uploaded",
		Description: pgtype.Text{String: fmt.Sprintf("Order %s payment proof uploaded", orderNo), Valid: true},
		OrderID:     pgtype.UUID{Bytes: updated.ID, Valid: true},
	})
	return updated, nil
}

// RateOrderRequest is the customer's post-fulfillment feedback.
type RateOrderRequest struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Rating     int32
	Review     string
}

// RateOrder records a 1-5 rating and optional review on a completed order.
func (s *OrderService) RateOrder(ctx context.Context, req RateOrderRequest) (database.Order, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return database.Order{}, ErrInvalidRating
	}

	order, err := s.store.GetOrderForCustomer(ctx, database.GetOrderForCustomerParams{
		ID:         req.OrderID,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusCompleted {
		return database.Order{}, ErrRatingNotAllowed
	}

	review := pgtype.Text{}
	if req.Review != "" {
		review = pgtype.Text{String: req.Review, Valid: true}
	}
	updated, err := s.store.RateOrder(ctx, database.RateOrderParams{
		ID:     order.ID,
		Rating: pgtype.Int4{Int32: req.Rating, Valid: true},
		Review: review,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("rate order: %w", err)
	}
	return updated, nil
}
