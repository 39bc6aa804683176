package routes

import (
	"net/http"

	"imageoptimize/failures"
	"imageoptimize/logger"
)

// FailureQueryHandler reports the last failed generation run of an asset
func FailureQueryHandler(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset")
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "asset parameter required")
		return
	}

	record, err := failures.GetFailure(assetID)
	if err != nil {
		logger.Errorf("Failed to query failure for asset %s: %v", assetID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if record == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"asset":   assetID,
			"status":  "success",
			"message": "No failure recorded for this asset",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":     record.AssetID,
		"status":    "failed",
		"timestamp": record.Timestamp,
		"error":     record.Error,
		"data":      record.Data,
	})
}

// FailureListHandler handles listing all failures (admin endpoint)
func FailureListHandler(w http.ResponseWriter, r *http.Request) {
	failuresList, err := failures.ListFailures()
	if err != nil {
		logger.Errorf("Failed to list failures: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"failures": failuresList,
		"count":    len(failuresList),
	})
}
