// backend/src/handlers/backup_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type BackupHandler struct {
	backup services.BackupService
}

func NewBackupHandler(backup services.BackupService) *BackupHandler {
	return &BackupHandler{backup: backup}
}

// requestFormat picks the snapshot format from ?format= or, failing that, the Content-Type.
func requestFormat(r *http.Request) (string, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return services.ParseFormat(f)
	}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		return services.FormatYAML, nil
	}
	return services.FormatJSON, nil
}

// HandleExport streams the whole ledger as a downloadable file. Admin only.
func (h *BackupHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := services.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	snap, err := h.backup.Export(r.Context())
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := services.EncodeSnapshot(&buf, snap, format); err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode backup", "format", format, "error", err)
		utils.SendJSONErrorCode(w, "failed to encode backup", "storage_error", http.StatusInternalServerError)
		return
	}

	contentType := "application/json"
	if format == services.FormatYAML {
		contentType = "application/yaml"
	}
	filename := fmt.Sprintf("tradejournal-backup-%s.%s", snap.ExportedAt.Format("20060102-150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write backup response", "error", err)
	}
}

// HandleRestore replaces the ledger with the uploaded snapshot. Admin only.
func (h *BackupHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	snap, err := services.DecodeSnapshot(r.Body, format)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	result, err := h.backup.Restore(r.Context(), snap)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
