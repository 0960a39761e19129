package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"
	"p9e.in/meterops/middleware"
	"p9e.in/meterops/models"
)

// maxUploadBytes caps the spreadsheet size; reader meter sheets are a
// few thousand rows at most.
const maxUploadBytes = 10 << 20

// UploadMeters ingests a spreadsheet of meters. The first sheet must
// carry METER, LATITUDE, LONGITUDE, ACCOUNT and DISTRICT columns; rows
// are handed to the registry which validates each one and runs the
// whole batch as a single transaction.
func UploadMeters(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		http.Error(w, "could not read spreadsheet: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		http.Error(w, "spreadsheet has no sheets", http.StatusBadRequest)
		return
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		http.Error(w, "could not read sheet: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(rows) < 2 {
		http.Error(w, "sheet has no data rows", http.StatusBadRequest)
		return
	}

	importRows, err := parseSheet(rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := reg().UpsertFromImport(r.Context(), importRows, middleware.GetUsername(r))
	if err != nil {
		respondErr(w, err)
		return
	}
	log.Printf("import by %s: %d inserted, %d updated, %d skipped",
		middleware.GetUsername(r), result.Inserted, result.Updated, len(result.Skipped))

	writeJSON(w, map[string]interface{}{
		"success":  true,
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	})
}

// parseSheet maps the header row onto column positions and converts the
// data rows to ImportRows. Column order in the sheet doesn't matter.
func parseSheet(rows [][]string) ([]models.ImportRow, error) {
	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"METER", "LATITUDE", "LONGITUDE", "ACCOUNT", "DISTRICT"} {
		if _, ok := cols[required]; !ok {
			return nil, &missingColumnError{required}
		}
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return row[col]
		}
		return ""
	}

	out := make([]models.ImportRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, models.ImportRow{
			Meter:     cell(row, cols["METER"]),
			Latitude:  cell(row, cols["LATITUDE"]),
			Longitude: cell(row, cols["LONGITUDE"]),
			Account:   cell(row, cols["ACCOUNT"]),
			District:  cell(row, cols["DISTRICT"]),
		})
	}
	return out, nil
}

type missingColumnError struct {
	column string
}

func (e *missingColumnError) Error() string {
	return "sheet is missing required column " + e.column
}
