package biz

import (
	"context"

	"StayBridge/internal/model"
)

// PMSRepo defines the property-management-system client interface.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer.
// Implementation is in data layer (data.PMSClient).
type PMSRepo interface {
	// CheckAvailability queries room availability for a room type and stay dates.
	CheckAvailability(ctx context.Context, roomType, checkIn, checkOut string) (*model.Availability, error)

	// GetReservation fetches a reservation by id.
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)

	// CreateReservation books a new reservation.
	CreateReservation(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error)

	// UpdateReservation applies a partial update to an existing reservation.
	UpdateReservation(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error)

	// GetGuestFolio fetches the guest's folio with all posted charges.
	GetGuestFolio(ctx context.Context, guestID string) (*model.Folio, error)

	// AddFolioCharge posts a charge to the guest's folio and returns the
	// updated folio.
	AddFolioCharge(ctx context.Context, guestID string, charge *model.FolioCharge) (*model.Folio, error)

	// GetGuestProfile fetches the guest's profile and preferences.
	GetGuestProfile(ctx context.Context, guestID string) (*model.GuestProfile, error)

	// Ping probes the upstream health endpoint.
	Ping(ctx context.Context) error
}

// MessageSender defines the outbound message gateway interface.
// Implementation is in data layer (data.GatewayClient).
type MessageSender interface {
	// Send delivers a message payload to the recipient and returns the
	// gateway delivery id.
	Send(ctx context.Context, recipient, payload string) (string, error)
}
