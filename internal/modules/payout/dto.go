package payout

type CreatePayoutRequest struct {
	StudioID int64  `json:"studio_id,omitempty" binding:"omitempty,gt=0"`
	Amount   string `json:"amount" binding:"required"`
	Method   string `json:"method" binding:"required,oneof=bank_transfer card"`
	Details  string `json:"details" binding:"max=500"`
}

type ProcessPayoutRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
