package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shardlink/internal/flog"
	"shardlink/internal/framing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		flog.Debugf("admin: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *Admin) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := a.src.Status()
	status := http.StatusOK
	if st.Phase != "game" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"phase": st.Phase})
}

func (a *Admin) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.src.Status())
}

// handleTable prints the frame length table, or one entry with ?id=0x73.
func (a *Admin) handleTable(w http.ResponseWriter, r *http.Request) {
	t := a.src.Table()
	if s := r.URL.Query().Get("id"); s != "" {
		id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be a hex byte")
			return
		}
		spec := t.Lookup(byte(id))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     fmt.Sprintf("0x%02X", id),
			"kind":   spec.Kind.String(),
			"size":   spec.Size,
			"length": spec.String(),
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := framing.Dump(w, t); err != nil {
		flog.Debugf("admin: failed to write table: %v", err)
	}
}
