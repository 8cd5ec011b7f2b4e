package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// CreateReviewInput is the payload for posting a review.
type CreateReviewInput struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	OrderItemID *uuid.UUID `json:"order_item_id"`
	Rating      int        `json:"rating" validate:"required,gte=1,lte=5"`
	Title       string     `json:"title" validate:"max=200"`
	Comment     string     `json:"comment"`
}

// UpdateReviewInput carries the editable fields of an existing review.
type UpdateReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment"`
}

// DTO is the API projection of a review.
type DTO struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment,omitempty"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	IsApproved         bool      `json:"is_approved"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PageDTO is a cursor-paginated review listing.
type PageDTO struct {
	Items      []DTO  `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	Total      int    `json:"total"`
}

func toDTO(r models.Review) DTO {
	return DTO{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		CustomerID:         r.CustomerID,
		Rating:             r.Rating,
		Title:              r.Title,
		Comment:            r.Comment,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		IsApproved:         r.IsApproved,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
