package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ticketdrop/ticketdrop/internal/history"
	"github.com/ticketdrop/ticketdrop/internal/uploader"
)

// User-facing response bodies. The success and comment-failure variants
// are both 200 — a failed confirmation comment never fails an upload whose
// bytes are already stored.
const (
	msgSuccess        = "File uploaded successfully.\n<br>Added comment to bugzilla"
	msgCommentFailed  = "File uploaded successfully.\n<br>Failed to add comment to bugzilla"
	msgNoFile         = "No file attached"
	msgNoBugID        = "No bugid supplied"
	msgTicketNotFound = "Bug not found in bugzilla"
	msgUploadFailed   = "Upload failed"
)

// handleUpload accepts multipart form data with fields "file" (binary) and
// "bugid" (ticket identifier) and runs the upload chain.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}

	// Fields up to the memory limit stay in memory; larger file parts
	// spill to a temp file that FormFile hands back as a seekable reader.
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		s.respond(w, http.StatusBadRequest, msgNoFile)
		return
	}

	bugID := r.FormValue("bugid")
	if bugID == "" {
		s.respond(w, http.StatusBadRequest, msgNoBugID)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respond(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	outcome, err := s.uploads.Upload(r.Context(), uploader.Request{
		BugID:    bugID,
		FileName: header.Filename,
		MimeType: mimeType,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		s.logger.Error("upload request failed",
			slog.String("bug_id", bugID),
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()),
		)

		if errors.Is(err, uploader.ErrTicketNotFound) {
			s.respond(w, http.StatusBadRequest, msgTicketNotFound)
			return
		}

		s.respond(w, http.StatusInternalServerError, msgUploadFailed)

		return
	}

	if outcome.CommentPosted {
		s.respond(w, http.StatusOK, msgSuccess)
	} else {
		s.respond(w, http.StatusOK, msgCommentFailed)
	}
}

// handleHistory serves the most recent upload audit records as JSON.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Recent(r.Context(), historyPageLimit)
	if err != nil {
		s.logger.Error("listing upload history failed",
			slog.String("error", err.Error()),
		)
		http.Error(w, "history unavailable", http.StatusInternalServerError)

		return
	}

	if entries == nil {
		entries = []history.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.logger.Error("encoding upload history failed",
			slog.String("error", err.Error()),
		)
	}
}

// respond writes a plain-text status message.
func (s *Server) respond(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg)) //nolint:errcheck // client disconnects are not actionable
}
