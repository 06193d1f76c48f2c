package wallet

type AdjustRequest struct {
	Direction string `json:"direction" binding:"required,oneof=credit debit"`
	Amount    string `json:"amount" binding:"required"`
	Note      string `json:"note" binding:"max=500"`
}
