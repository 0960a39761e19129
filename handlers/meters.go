package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"p9e.in/meterops/config"
	"p9e.in/meterops/middleware"
	"p9e.in/meterops/models"
	"p9e.in/meterops/pkg/assignment"
	"p9e.in/meterops/pkg/reconcile"
	"p9e.in/meterops/pkg/registry"
	"p9e.in/meterops/pkg/routing"
	"p9e.in/meterops/utils"
)

func reg() *registry.Registry {
	return registry.New(config.DB)
}

// respondErr maps the service error taxonomy onto HTTP statuses.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Meter not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNoUnassignedMeters):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrStoreUnavailable):
		http.Error(w, "datastore unavailable, retry later", http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// sequenceOpts builds routing options from the optional origin query
// parameters.
func sequenceOpts(r *http.Request) []routing.Option {
	latStr := r.URL.Query().Get("origin_lat")
	lngStr := r.URL.Query().Get("origin_lng")
	if latStr == "" || lngStr == "" {
		return nil
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		return nil
	}
	return []routing.Option{routing.WithOrigin(lat, lng)}
}

// GetMeters returns all meters; ?reader_id=N filters to one reader's
// list and ?sequence=1 orders the result into a visiting route.
func GetMeters(w http.ResponseWriter, r *http.Request) {
	var meters []models.Meter
	var err error

	if readerStr := r.URL.Query().Get("reader_id"); readerStr != "" {
		readerID, convErr := strconv.ParseUint(readerStr, 10, 32)
		if convErr != nil {
			http.Error(w, "reader_id must be an integer", http.StatusBadRequest)
			return
		}
		meters, err = reg().ListByReader(r.Context(), uint(readerID))
	} else {
		meters, err = reg().List(r.Context())
	}
	if err != nil {
		respondErr(w, err)
		return
	}

	if r.URL.Query().Get("sequence") == "1" {
		meters = routing.Sequence(meters, sequenceOpts(r)...)
	}

	writeJSON(w, map[string]interface{}{"data": meters})
}

type statusReq struct {
	MeterNumber string   `json:"meter_number"`
	Status      string   `json:"status"`
	ReaderLat   *float64 `json:"reader_lat"`
	ReaderLng   *float64 `json:"reader_lng"`
}

// UpdateMeterStatus transitions a meter by business key. The response
// carries within_range as an informational signal; a false value never
// blocks the write, the client surfaces the discrepancy instead.
func UpdateMeterStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	meter, err := reg().UpdateStatus(r.Context(), req.MeterNumber, req.Status, req.ReaderLat, req.ReaderLng)
	if err != nil {
		respondErr(w, err)
		return
	}
	log.Printf("meter %s status set to %s by %s", meter.MeterNumber, meter.Status, middleware.GetUsername(r))

	writeJSON(w, map[string]interface{}{
		"success":      true,
		"updatedMeter": meter,
		"within_range": utils.ReaderWithinRange(meter, utils.DefaultProximityRadius),
	})
}

// ReplaceMeterStatus is the same transition keyed by internal id, used
// by map-pin interactions where only the id is known.
func ReplaceMeterStatus(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	id, convErr := strconv.ParseUint(params["id"], 10, 32)
	if convErr != nil {
		http.Error(w, "id must be an integer", http.StatusBadRequest)
		return
	}

	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	meter, err := reg().ReplaceStatusByID(r.Context(), uint(id), req.Status, req.ReaderLat, req.ReaderLng)
	if err != nil {
		respondErr(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"meter":        meter,
		"within_range": utils.ReaderWithinRange(meter, utils.DefaultProximityRadius),
	})
}

type syncReq struct {
	Meters []models.Meter `json:"meters"`
}

// SyncMeters reconciles a client's cached meter list with the
// authoritative records: structural fields from the store, reader
// overrides from the cache, cache-only meters preserved. The merged
// list comes back sequenced so the client can render it directly. This
// is how a client that applied an update locally during an outage
// converges with the server.
func SyncMeters(w http.ResponseWriter, r *http.Request) {
	var req syncReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	authoritative, err := reg().List(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	merged := reconcile.MergeLists(authoritative, req.Meters)
	writeJSON(w, map[string]interface{}{
		"data": routing.Sequence(merged, sequenceOpts(r)...),
	})
}

type assignReq struct {
	ReaderID uint `json:"reader_id"`
	Count    int  `json:"count"`
}

// AssignMeters binds the first N unassigned meters to a reader and
// returns the recomputed roster stats.
func AssignMeters(w http.ResponseWriter, r *http.Request) {
	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ReaderID == 0 {
		http.Error(w, "reader_id is required", http.StatusBadRequest)
		return
	}

	var reader models.Reader
	if err := config.DB.First(&reader, req.ReaderID).Error; err != nil {
		http.Error(w, "reader not found", http.StatusNotFound)
		return
	}

	meters, err := reg().List(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	result, err := assignment.Assign(req.ReaderID, req.Count, meters)
	if err != nil {
		respondErr(w, err)
		return
	}

	if err := reg().AssignToReader(r.Context(), req.ReaderID, result.MeterNumbers); err != nil {
		respondErr(w, err)
		return
	}
	log.Printf("assigned %d meters to reader %d (%s)", result.Assigned, reader.ID, reader.Name)

	readers, stats, err := rosterWithStats(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"result":  result,
		"readers": readers,
		"stats":   stats,
	})
}

// GetReaders returns the roster with derived stats recomputed from the
// current meter records.
func GetReaders(w http.ResponseWriter, r *http.Request) {
	readers, stats, err := rosterWithStats(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"data": readers, "stats": stats})
}

func rosterWithStats(r *http.Request) ([]models.Reader, assignment.PoolStats, error) {
	readers, err := reg().Readers(r.Context())
	if err != nil {
		return nil, assignment.PoolStats{}, err
	}
	meters, err := reg().List(r.Context())
	if err != nil {
		return nil, assignment.PoolStats{}, err
	}
	return assignment.ComputeStats(readers, meters), assignment.ComputePoolStats(meters), nil
}

// ClearAllMeters deletes every meter record. Supervisor-only; the
// confirmation dialog is the client's concern.
func ClearAllMeters(w http.ResponseWriter, r *http.Request) {
	if err := reg().ClearAll(r.Context()); err != nil {
		respondErr(w, err)
		return
	}
	log.Printf("all meters cleared by %s", middleware.GetUsername(r))
	writeJSON(w, map[string]interface{}{"success": true})
}
