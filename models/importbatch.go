package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportRow is one raw spreadsheet row handed over by the upload
// collaborator. Every field arrives as a string and is validated and
// coerced by the registry before it touches a Meter.
type ImportRow struct {
	Meter     string `json:"METER"`
	Latitude  string `json:"LATITUDE"`
	Longitude string `json:"LONGITUDE"`
	Account   string `json:"ACCOUNT"`
	District  string `json:"DISTRICT"`
}

// ImportResult summarizes one bulk import.
type ImportResult struct {
	Inserted int          `json:"inserted"`
	Updated  int          `json:"updated"`
	Skipped  []SkippedRow `json:"skipped"`
}

// SkippedRow records a row that failed validation, with the 1-based
// position it held in the sheet.
type SkippedRow struct {
	Index  int       `json:"index"`
	Row    ImportRow `json:"row"`
	Reason string    `json:"reason"`
}

// ImportBatch is the audit row written inside the import transaction,
// one per upload.
type ImportBatch struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"       json:"id"`
	UploadedBy string         `gorm:"size:100"                   json:"uploadedBy"`
	Inserted   int            `json:"inserted"`
	Updated    int            `json:"updated"`
	Skipped    datatypes.JSON `gorm:"type:jsonb"                 json:"skipped"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"             json:"createdAt"`
}

func (b *ImportBatch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
