package routes

import (
	"net/http"

	"imageoptimize/logger"
	"imageoptimize/success"
)

// SuccessQueryHandler reports the last successful generation run of an asset
func SuccessQueryHandler(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset")
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "asset parameter required")
		return
	}

	record, err := success.GetSuccess(assetID)
	if err != nil {
		logger.Errorf("Failed to query success for asset %s: %v", assetID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if record == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"asset":   assetID,
			"status":  "not_found",
			"message": "No success record found for this asset",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":     record.AssetID,
		"status":    "success",
		"timestamp": record.Timestamp,
		"url_count": record.URLCount,
		"data":      record.Data,
	})
}

// SuccessListHandler handles listing all success records (admin endpoint)
func SuccessListHandler(w http.ResponseWriter, r *http.Request) {
	records, err := success.ListSuccessRecords()
	if err != nil {
		logger.Errorf("Failed to list success records: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success_records": records,
		"count":           len(records),
	})
}
