// Package handler contains the HTTP API. Handlers decode and validate
// requests, call the day-workflow rules and stores, and broadcast changes
// to connected dashboards.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mootify/routinestars/internal/recurrence"
)

// DefaultGroupID is the group seeded by the initial migration. The server
// runs one family or classroom per instance.
const DefaultGroupID = int64(1)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": fields,
	})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parsePathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func parseQueryInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// parseDateParam reads a {date} path segment as a calendar day.
func parseDateParam(r *http.Request) (time.Time, error) {
	return time.ParseInLocation(recurrence.DateLayout, r.PathValue("date"), time.UTC)
}
