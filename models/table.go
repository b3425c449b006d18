package models

import "time"

type Table struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Number       int         `gorm:"column:numero;uniqueIndex;not null" json:"number"`
	Status       TableStatus `gorm:"type:varchar(20);not null;default:'free'" json:"status"`
	OccupantName *string     `gorm:"column:cliente_nome;type:varchar(100)" json:"occupant_name"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
	Orders       []Order     `gorm:"foreignKey:TableID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Occupy opens the table for name. Status and occupant always change together.
func (t *Table) Occupy(name string) {
	t.Status = TableOpen
	t.OccupantName = &name
}

// Release frees the table and clears the occupant.
func (t *Table) Release() {
	t.Status = TableFree
	t.OccupantName = nil
}

// Occupant returns the occupant name or "" for a free table.
func (t Table) Occupant() string {
	if t.OccupantName == nil {
		return ""
	}
	return *t.OccupantName
}
