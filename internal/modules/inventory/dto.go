package inventory

import "time"

type UnitRequest struct {
	EquipmentType string `json:"equipment_type" binding:"required" validate:"equipment"`
	Capacity      int    `json:"capacity" binding:"required,gt=0,lte=100"`
	UnitPrice     string `json:"unit_price" binding:"required" validate:"money"`
}

type CreateSlotGroupRequest struct {
	StartTime time.Time     `json:"start_time" binding:"required"`
	EndTime   time.Time     `json:"end_time" binding:"required,gtfield=StartTime"`
	Units     []UnitRequest `json:"units" binding:"required,min=1,max=5,dive"`
}
