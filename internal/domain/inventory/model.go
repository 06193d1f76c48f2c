package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EquipmentType string

const (
	EquipmentReformer EquipmentType = "reformer"
	EquipmentCadillac EquipmentType = "cadillac"
	EquipmentChair    EquipmentType = "chair"
	EquipmentBarrel   EquipmentType = "barrel"
	EquipmentMat      EquipmentType = "mat"
)

// SlotGroup is one studio time window. Its units carry per-equipment capacity.
type SlotGroup struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	StudioID  int64      `json:"studio_id" gorm:"not null;index"`
	StartTime time.Time  `json:"start_time" gorm:"not null;index"`
	EndTime   time.Time  `json:"end_time" gorm:"not null"`
	Units     []SlotUnit `json:"units" gorm:"foreignKey:SlotGroupID"`
	CreatedAt time.Time  `json:"created_at"`
}

func (SlotGroup) TableName() string {
	return "slot_groups"
}

func (g *SlotGroup) Unit(t EquipmentType) (*SlotUnit, bool) {
	for i := range g.Units {
		if g.Units[i].EquipmentType == t {
			return &g.Units[i], true
		}
	}
	return nil, false
}

type SlotUnit struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	SlotGroupID   int64           `json:"slot_group_id" gorm:"not null;uniqueIndex:idx_slot_unit_type,priority:1"`
	EquipmentType EquipmentType   `json:"equipment_type" gorm:"type:varchar(32);not null;uniqueIndex:idx_slot_unit_type,priority:2"`
	Capacity      int             `json:"capacity" gorm:"not null"`
	Reserved      int             `json:"reserved" gorm:"not null;default:0"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:numeric(14,2);not null"`
}

func (SlotUnit) TableName() string {
	return "slot_units"
}

func (u SlotUnit) Remaining() int {
	return u.Capacity - u.Reserved
}

// Reservation is the token returned by Reserve. ReleasedAt makes Release idempotent.
type Reservation struct {
	Token      uuid.UUID  `json:"token" gorm:"type:uuid;primaryKey"`
	SlotUnitID int64      `json:"slot_unit_id" gorm:"not null;index"`
	Quantity   int        `json:"quantity" gorm:"not null"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

func (Reservation) TableName() string {
	return "slot_reservations"
}

func (r *Reservation) BeforeCreate(_ *gorm.DB) error {
	if r.Token == uuid.Nil {
		r.Token = uuid.New()
	}
	return nil
}
