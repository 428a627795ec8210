package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/JonMunkholm/sql2xlsx/internal/core"
	"github.com/JonMunkholm/sql2xlsx/internal/logging"
)

// maxFormMemory is how much of a multipart upload is held in memory before
// the rest spills to disk.
const maxFormMemory = 32 << 20

var filenameEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// conditionalHeaders are the request headers http.ServeContent acts on.
var conditionalHeaders = []string{
	"Range",
	"If-Range",
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"If-Unmodified-Since",
}

// handleConvert loads an uploaded SQL dump and answers with the workbook.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusBadRequest,
				fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit))
			return
		}
		writeError(w, r, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := core.Request{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Host:     r.FormValue("host"),
		Engine:   r.FormValue("engine"),
	}
	if req.Host == "" {
		req.Host = s.cfg.Upload.DefaultHost
	}

	file, header, err := r.FormFile("sqlFile")
	switch {
	case err == nil:
		defer file.Close()
		req.Script = file
		req.Filename = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		writeError(w, r, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}

	conv, err := s.conv.Convert(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer func() {
		// Deliver the whole body before the files go away.
		if err := http.NewResponseController(w).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logging.FromContext(r.Context()).Debug("flush failed", "error", err)
		}
		conv.Close(r.Context())
	}()

	f, err := os.Open(conv.WorkbookPath)
	if err != nil {
		respondError(w, r, fmt.Errorf("open workbook: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, r, fmt.Errorf("stat workbook: %w", err))
		return
	}

	// The download is always the whole workbook, never a partial or
	// not-modified response.
	for _, h := range conditionalHeaders {
		r.Header.Del(h)
	}

	w.Header().Set("Content-Type", core.WorkbookContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filenameEscaper.Replace(conv.Filename())))
	http.ServeContent(w, r, conv.Filename(), info.ModTime(), f)
}
