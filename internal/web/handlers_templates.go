package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

const templateBaseName = "modelo_importacao_produtos"

// handleDownloadTemplate serves the import template as CSV (default) or
// XLSX (?format=xlsx).
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	var (
		buf         bytes.Buffer
		contentType string
		ext         string
		err         error
	)

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		contentType, ext = "text/csv; charset=utf-8", "csv"
		err = core.WriteTemplateCSV(&buf)
	case "xlsx":
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
		err = core.WriteTemplateXLSX(&buf)
	default:
		respondError(w, r, fmt.Errorf("%w: unknown template format %q", errBadRequest, format))
		return
	}
	if err != nil {
		respondError(w, r, fmt.Errorf("build template: %w", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, templateBaseName, ext))
	w.Write(buf.Bytes())
}
