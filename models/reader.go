package models

import "time"

// Reader is a field technician who visits meters. The assigned/visited
// counts are derived from Meter records on every read; Meter.ReaderID is
// the source of truth and the counts are never persisted.
type Reader struct {
	ID         uint   `gorm:"primaryKey"          json:"id"`
	Name       string `gorm:"size:100;not null"   json:"name"`
	Department string `gorm:"size:100"            json:"department"`

	MetersAssigned int `gorm:"-" json:"metersAssigned"`
	MetersVisited  int `gorm:"-" json:"metersVisited"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
