package profile

// UpdateProfileRequest is a partial update of the caller's own profile.
type UpdateProfileRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=120"`
	SessionFee *string `json:"session_fee"`
}

type CreateStudioRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
}

// PayoutApprovalRequest is set by the out-of-band verification workflow.
type PayoutApprovalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}
