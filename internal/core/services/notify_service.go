package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"lendhub/internal/adapters/persistence/models"
)

// NotifyService posts reservation lifecycle events to an external webhook.
// Disabled when no webhook URL is configured; every method is then a no-op.
type NotifyService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotifyService creates a new notify service
func NewNotifyService(webhookURL string) *NotifyService {
	return &NotifyService{
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// IsEnabled checks if notifications are enabled
func (s *NotifyService) IsEnabled() bool {
	return s.enabled
}

type notifyEvent struct {
	Event         string     `json:"event"`
	ReservationID uint       `json:"reservation_id"`
	Reference     string     `json:"reference"`
	ProductID     uint       `json:"product_id"`
	UserID        uint       `json:"user_id"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	At            time.Time  `json:"at"`
}

// send posts an event. Failures are logged, never propagated: a dead
// webhook must not break a booking.
func (s *NotifyService) send(event string, r *models.Reservation) {
	if !s.enabled || r == nil {
		return
	}

	payload, err := json.Marshal(notifyEvent{
		Event:         event,
		ReservationID: r.ID,
		Reference:     r.Reference,
		ProductID:     r.ProductID,
		UserID:        r.UserID,
		Status:        r.Status,
		StartDate:     r.StartDate,
		EndDate:       &r.EndDate,
		At:            time.Now(),
	})
	if err != nil {
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("⚠️ Webhook notify failed (%s): %v", event, err)
		return
	}
	defer resp.Body.Close()
}

// NotifyConfirmed sends an event for a new confirmed reservation
func (s *NotifyService) NotifyConfirmed(r *models.Reservation) {
	s.send("reservation.confirmed", r)
}

// NotifyCheckedOut sends an event for a checkout
func (s *NotifyService) NotifyCheckedOut(r *models.Reservation) {
	s.send("reservation.checked_out", r)
}

// NotifyReturned sends an event for a return
func (s *NotifyService) NotifyReturned(r *models.Reservation) {
	s.send("reservation.returned", r)
}

// NotifyCancelled sends an event for a cancellation
func (s *NotifyService) NotifyCancelled(r *models.Reservation) {
	s.send("reservation.cancelled", r)
}

// NotifyRefunded sends an event for a refund
func (s *NotifyService) NotifyRefunded(r *models.Reservation) {
	s.send("reservation.refunded", r)
}
