package petitions

import "time"

// Petition is a tenant-owned campaign page. Slug is globally unique so the
// public routes can address it without a tenant.
type Petition struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Goal           int       `json:"goal"`
	IsActive       bool      `json:"isActive"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	SignatureCount int64     `json:"signatureCount"`
}

type Signature struct {
	ID         string    `json:"id"`
	PetitionID string    `json:"petitionId"`
	UserID     *string   `json:"userId"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Goal        int    `json:"goal"`
}

type SignRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Comment  string `json:"comment"`
}
