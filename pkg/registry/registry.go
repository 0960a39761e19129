// Package registry is the authoritative store of meter records.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"p9e.in/meterops/models"
)

// storeTimeout bounds every store call so no request can hang on the
// database; callers see models.ErrStoreUnavailable and retry.
const storeTimeout = 5 * time.Second

type Registry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// List returns every meter record, coordinates already numeric.
func (r *Registry) List(ctx context.Context) ([]models.Meter, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var meters []models.Meter
	if err := r.db.WithContext(ctx).Order("id").Find(&meters).Error; err != nil {
		return nil, storeErr("list meters", err)
	}
	return meters, nil
}

// ListByReader returns the meters currently bound to one reader.
func (r *Registry) ListByReader(ctx context.Context, readerID uint) ([]models.Meter, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var meters []models.Meter
	if err := r.db.WithContext(ctx).Where("reader_id = ?", readerID).Order("id").Find(&meters).Error; err != nil {
		return nil, storeErr("list meters by reader", err)
	}
	return meters, nil
}

// Readers returns the roster, without derived stats.
func (r *Registry) Readers(ctx context.Context) ([]models.Reader, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var readers []models.Reader
	if err := r.db.WithContext(ctx).Order("id").Find(&readers).Error; err != nil {
		return nil, storeErr("list readers", err)
	}
	return readers, nil
}

// UpsertFromImport runs the bulk import as one all-or-nothing
// transaction: reset every meter to Pending, then for each valid row
// insert a new Pending meter or refresh the existing meter's
// coordinates, account and district. Status, reader_id and
// visited_timestamp columns are never written by the upsert, so a row
// update cannot clobber them. Rows failing validation are skipped and
// reported, never fatal. An audit row is written in the same
// transaction.
func (r *Registry) UpsertFromImport(ctx context.Context, rows []models.ImportRow, uploadedBy string) (*models.ImportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result := &models.ImportResult{Skipped: []models.SkippedRow{}}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Meter{}).Where("1 = 1").Update("status", models.StatusPending).Error; err != nil {
			return fmt.Errorf("reset statuses: %w", err)
		}

		for i, row := range rows {
			meterNumber := strings.TrimSpace(row.Meter)
			lat, latErr := strconv.ParseFloat(strings.TrimSpace(row.Latitude), 64)
			lng, lngErr := strconv.ParseFloat(strings.TrimSpace(row.Longitude), 64)
			account := strings.TrimSpace(row.Account)
			district := strings.TrimSpace(row.District)

			var reason string
			switch {
			case meterNumber == "":
				reason = "missing meter number"
			case latErr != nil || lngErr != nil:
				reason = "invalid coordinates"
			case account == "":
				reason = "missing account number"
			case district == "":
				reason = "missing district name"
			}
			if reason != "" {
				result.Skipped = append(result.Skipped, models.SkippedRow{Index: i + 1, Row: row, Reason: reason})
				continue
			}

			var existing models.Meter
			err := tx.Where("meter_number = ?", meterNumber).First(&existing).Error
			switch {
			case err == nil:
				updates := map[string]interface{}{
					"latitude":       lat,
					"longitude":      lng,
					"account_number": account,
					"district_name":  district,
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("update meter %s: %w", meterNumber, err)
				}
				result.Updated++
			case errors.Is(err, gorm.ErrRecordNotFound):
				meter := models.Meter{
					MeterNumber:   meterNumber,
					Latitude:      &lat,
					Longitude:     &lng,
					AccountNumber: account,
					DistrictName:  district,
					Status:        models.StatusPending,
				}
				if err := tx.Create(&meter).Error; err != nil {
					return fmt.Errorf("insert meter %s: %w", meterNumber, err)
				}
				result.Inserted++
			default:
				return fmt.Errorf("look up meter %s: %w", meterNumber, err)
			}
		}

		skippedJSON, err := json.Marshal(result.Skipped)
		if err != nil {
			return fmt.Errorf("marshal skipped rows: %w", err)
		}
		batch := models.ImportBatch{
			UploadedBy: uploadedBy,
			Inserted:   result.Inserted,
			Updated:    result.Updated,
			Skipped:    skippedJSON,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("record import batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("bulk import", err)
	}
	return result, nil
}

// UpdateStatus transitions the meter with the given business key. When
// reader coordinates are supplied the reader's position is recorded,
// and a transition into Visited stamps visited_timestamp.
func (r *Registry) UpdateStatus(ctx context.Context, meterNumber, status string, readerLat, readerLng *float64) (*models.Meter, error) {
	if meterNumber == "" || status == "" {
		return nil, fmt.Errorf("%w: meter_number and status are required", models.ErrInvalidInput)
	}
	return r.applyStatus(ctx, "meter_number = ?", meterNumber, status, readerLat, readerLng)
}

// ReplaceStatusByID is UpdateStatus keyed by internal id, for map-pin
// interactions where only the id is known.
func (r *Registry) ReplaceStatusByID(ctx context.Context, id uint, status string, readerLat, readerLng *float64) (*models.Meter, error) {
	if id == 0 || status == "" {
		return nil, fmt.Errorf("%w: id and status are required", models.ErrInvalidInput)
	}
	return r.applyStatus(ctx, "id = ?", id, status, readerLat, readerLng)
}

func (r *Registry) applyStatus(ctx context.Context, cond string, key interface{}, status string, readerLat, readerLng *float64) (*models.Meter, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var meter models.Meter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(cond, key).First(&meter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{"status": status}
		meter.Status = models.MeterStatus(status)
		if readerLat != nil && readerLng != nil {
			loc := models.GeoPoint{X: *readerLat, Y: *readerLng}
			updates["reader_location"] = loc
			meter.ReaderLocation = &loc
			if models.MeterStatus(status) == models.StatusVisited {
				now := time.Now()
				updates["visited_timestamp"] = now
				meter.VisitedTimestamp = &now
			}
		}
		return tx.Model(&models.Meter{}).Where("id = ?", meter.ID).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("update status", err)
	}
	return &meter, nil
}

// AssignToReader persists an assignment computed by the planner.
func (r *Registry) AssignToReader(ctx context.Context, readerID uint, meterNumbers []string) error {
	if len(meterNumbers) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	// The reader_id IS NULL guard keeps two concurrent assigns working
	// from stale List snapshots from silently reassigning each other's
	// meters.
	err := r.db.WithContext(ctx).
		Model(&models.Meter{}).
		Where("meter_number IN ? AND reader_id IS NULL", meterNumbers).
		Update("reader_id", readerID).Error
	if err != nil {
		return storeErr("assign meters", err)
	}
	return nil
}

// ClearAll irreversibly deletes every meter record. Supervisor-only;
// confirmation is the caller's concern.
func (r *Registry) ClearAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Exec("DELETE FROM meters").Error; err != nil {
		return storeErr("clear meters", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s timed out", models.ErrStoreUnavailable, op)
	}
	if errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", models.ErrStoreUnavailable, op, err)
}
