package booking

type CreateBookingRequest struct {
	InstructorID  int64  `json:"instructor_id" binding:"required,gt=0"`
	SlotGroupID   int64  `json:"slot_group_id" binding:"required,gt=0"`
	EquipmentType string `json:"equipment_type" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0,lte=20"`
}

type SubmitPaymentRequest struct {
	ProofRef string `json:"proof_ref" binding:"required,max=512"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
