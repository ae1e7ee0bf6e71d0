package dto

import (
	"time"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/domain"
)

// AttendeeRequest represents one attendee in a registration request
type AttendeeRequest struct {
	Name   string `json:"name" binding:"required"`
	Age    int    `json:"age" binding:"gte=0,lte=120"`
	Gender string `json:"gender,omitempty"`
}

// RegisterRequest represents a request to register for an event
type RegisterRequest struct {
	Attendees    []AttendeeRequest `json:"attendees" binding:"required,min=1,max=10,dive"`
	ContactEmail string            `json:"contact_email" binding:"required,email"`
	ContactPhone string            `json:"contact_phone,omitempty"`
}

// ToAttendees converts the request attendees to domain attendees
func (r *RegisterRequest) ToAttendees() []domain.Attendee {
	attendees := make([]domain.Attendee, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		attendees = append(attendees, domain.Attendee{Name: a.Name, Age: a.Age, Gender: a.Gender})
	}
	return attendees
}

// RegistrationResponse represents a registration
type RegistrationResponse struct {
	ID            string            `json:"id"`
	EventID       string            `json:"event_id"`
	UserID        *string           `json:"user_id,omitempty"`
	Attendees     []domain.Attendee `json:"attendees"`
	ContactEmail  string            `json:"contact_email"`
	TotalAmount   float64           `json:"total_amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// FromRegistration converts a domain Registration to RegistrationResponse
func FromRegistration(reg *domain.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:            reg.ID,
		EventID:       reg.EventID,
		UserID:        reg.UserID,
		Attendees:     reg.Attendees,
		ContactEmail:  reg.ContactEmail,
		TotalAmount:   reg.TotalAmount,
		Currency:      reg.Currency,
		Status:        reg.Status,
		PaymentStatus: reg.PaymentStatus,
		CreatedAt:     reg.CreatedAt,
	}
}
