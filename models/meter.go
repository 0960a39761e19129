package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MeterStatus is the visit-status state of a meter.
type MeterStatus string

const (
	StatusPending  MeterStatus = "Pending"
	StatusAssigned MeterStatus = "Assigned"
	StatusVisited  MeterStatus = "Visited"
	StatusIssue    MeterStatus = "Issue"
)

// ValidStatus reports whether s is one of the known meter statuses.
func ValidStatus(s string) bool {
	switch MeterStatus(s) {
	case StatusPending, StatusAssigned, StatusVisited, StatusIssue:
		return true
	}
	return false
}

// GeoPoint is the reader's position at interaction time, stored as a
// postgres point column. Older clients send it as a "lat,lng" string,
// newer ones as an {x,y} object; both shapes are normalized here on
// ingest so nothing downstream branches on shape.
type GeoPoint struct {
	X float64 `json:"x"` // latitude
	Y float64 `json:"y"` // longitude
}

func (p GeoPoint) Value() (driver.Value, error) {
	return fmt.Sprintf("(%v,%v)", p.X, p.Y), nil
}

func (p *GeoPoint) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot scan %T into GeoPoint", src)
	}
	parsed, err := ParseGeoPoint(s)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	// Object form {x,y} first, string form "lat,lng" as fallback.
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		p.X, p.Y = obj.X, obj.Y
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("reader_location must be an {x,y} object or a \"lat,lng\" string")
	}
	parsed, err := ParseGeoPoint(s)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// ParseGeoPoint parses "lat,lng" or the postgres point form "(lat,lng)".
func ParseGeoPoint(s string) (*GeoPoint, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid point latitude %q", parts[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid point longitude %q", parts[1])
	}
	return &GeoPoint{X: x, Y: y}, nil
}

// Meter is the authoritative record of a utility meter. MeterNumber is
// the business key: every lookup and merge is keyed on it, and it never
// changes after insert.
type Meter struct {
	ID               uint        `gorm:"primaryKey"                          json:"id"`
	MeterNumber      string      `gorm:"column:meter_number;size:50;uniqueIndex;not null" json:"meter_number"`
	AccountNumber    string      `gorm:"column:account_number;size:50"       json:"account_number"`
	DistrictName     string      `gorm:"column:district_name;size:100"       json:"district_name"`
	Latitude         *float64    `gorm:"column:latitude"                     json:"latitude"`
	Longitude        *float64    `gorm:"column:longitude"                    json:"longitude"`
	Status           MeterStatus `gorm:"column:status;size:20;default:Pending" json:"status"`
	ReaderID         *uint       `gorm:"column:reader_id;index"              json:"reader_id"`
	ReaderLocation   *GeoPoint   `gorm:"column:reader_location;type:point"   json:"reader_location"`
	VisitedTimestamp *time.Time  `gorm:"column:visited_timestamp"            json:"visited_timestamp"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Located reports whether the meter has both coordinates and therefore
// participates in routing.
func (m *Meter) Located() bool {
	return m.Latitude != nil && m.Longitude != nil
}

func (m *Meter) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = StatusPending
	}
	return nil
}
