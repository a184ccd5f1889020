package model

import "time"

// Availability is the PMS answer to a room availability query.
type Availability struct {
	RoomType  string  `json:"room_type"`
	CheckIn   string  `json:"check_in"`
	CheckOut  string  `json:"check_out"`
	Available bool    `json:"available"`
	Rooms     int     `json:"rooms"`
	Rate      float64 `json:"rate"`
	Currency  string  `json:"currency"`
}

// Reservation mirrors the PMS reservation resource.
type Reservation struct {
	ID        string    `json:"id"`
	GuestID   string    `json:"guest_id"`
	RoomType  string    `json:"room_type"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Status    string    `json:"status"`
	Adults    int       `json:"adults"`
	Children  int       `json:"children"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReservationRequest is the payload for creating or updating a reservation.
type ReservationRequest struct {
	GuestID  string `json:"guest_id"`
	RoomType string `json:"room_type"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Adults   int    `json:"adults"`
	Children int    `json:"children,omitempty"`
}

// FolioCharge is a single line item on a guest folio.
type FolioCharge struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	PostedAt    time.Time `json:"posted_at"`
}

// Folio is the running bill for a guest's stay.
type Folio struct {
	GuestID  string        `json:"guest_id"`
	Balance  float64       `json:"balance"`
	Currency string        `json:"currency"`
	Charges  []FolioCharge `json:"charges"`
}

// GuestProfile is the near-static guest record held by the PMS.
type GuestProfile struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Language    string `json:"language"`
	VIPStatus   string `json:"vip_status,omitempty"`
	Preferences string `json:"preferences,omitempty"`
}
