package handlers

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ExportMetersGeoJSON feeds the map collaborator: every located meter as
// a GeoJSON point feature with its status and assignment attached.
// Unlocated meters have nothing to plot and are left out.
func ExportMetersGeoJSON(w http.ResponseWriter, r *http.Request) {
	meters, err := reg().List(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, m := range meters {
		if !m.Located() {
			continue
		}
		// GeoJSON positions are lon,lat
		feature := geojson.NewFeature(orb.Point{*m.Longitude, *m.Latitude})
		feature.Properties["id"] = m.ID
		feature.Properties["meter_number"] = m.MeterNumber
		feature.Properties["account_number"] = m.AccountNumber
		feature.Properties["district_name"] = m.DistrictName
		feature.Properties["status"] = string(m.Status)
		if m.ReaderID != nil {
			feature.Properties["reader_id"] = *m.ReaderID
		}
		if m.VisitedTimestamp != nil {
			feature.Properties["visited_timestamp"] = m.VisitedTimestamp
		}
		fc.Append(feature)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, "failed to build GeoJSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}
