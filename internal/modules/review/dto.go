package review

type CreateReviewRequest struct {
	BookingID    int64    `json:"booking_id" binding:"required,gt=0"`
	RevieweeKind string   `json:"reviewee_kind" binding:"required,oneof=user studio"`
	RevieweeID   int64    `json:"reviewee_id" binding:"required,gt=0"`
	Rating       int      `json:"rating" binding:"required,gte=1,lte=5"`
	Comment      string   `json:"comment,omitempty" binding:"max=2000"`
	Tags         []string `json:"tags,omitempty" binding:"max=10,dive,max=32"`
}
