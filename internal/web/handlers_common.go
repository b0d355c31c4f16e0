package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// readUpload reads the "file" form field into memory, refusing bodies over
// the configured size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (core.File, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.File{}, fmt.Errorf("file too large: %w", err)
		}
		return core.File{}, fmt.Errorf("%w: invalid form: no file provided", errBadRequest)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.File{}, fmt.Errorf("%w: no file provided", errBadRequest)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return core.File{}, fmt.Errorf("read upload: %w", err)
	}

	return core.File{Name: header.Filename, Size: header.Size, Data: data}, nil
}
