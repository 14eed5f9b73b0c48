package backend

import "time"

// Principal is the platform's representation of the signed-in user, as
// returned by the login and current-user endpoints.
type Principal struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	ReferralCode string     `json:"referral_code,omitempty"`
	Status       string     `json:"status"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Income       float64    `json:"income"`
	Documents    []Document `json:"documents,omitempty"`
}

type Document struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"file_name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// ProfileUpdate carries only the fields the profile endpoint accepts; zero
// values are omitted so the backend treats the update as partial.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Password string `json:"password,omitempty"`
}

type ListOptions struct {
	Page   int
	Limit  int
	Role   string
	Status string
	Search string
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

type Commission struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	EarnedAt  time.Time `json:"earned_at"`
	Reference string    `json:"reference,omitempty"`
}

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	District  string    `json:"district"`
	State     string    `json:"state"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type UserSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type PaymentOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type PaymentVerification struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type WithdrawalRequest struct {
	Amount  float64 `json:"amount"`
	Account string  `json:"account"`
}

type Withdrawal struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}
