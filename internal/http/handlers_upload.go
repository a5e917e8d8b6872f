package http

import (
	"net/http"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

const multipartMemoryLimit = 4 << 20

type uploadResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum"`
	HasThumbnail bool   `json:"has_thumbnail"`
}

func toUploadResponse(u core.Upload) uploadResponse {
	return uploadResponse{
		ID:           u.ID,
		OriginalName: u.OriginalName,
		ContentType:  u.ContentType,
		Size:         u.Size,
		Checksum:     u.Checksum,
		HasThumbnail: u.ThumbnailPath != "",
	}
}

func (s *Server) handleUploadCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, r, core.Validationf("invalid multipart request: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, core.Validationf("missing file field"))
		return
	}
	defer file.Close()

	upload, err := s.files.Upload(r.Context(), uid, header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUploadResponse(upload))
}

func (s *Server) handleUploadList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.files.List(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]uploadResponse, len(list))
	for i, u := range list {
		out[i] = toUploadResponse(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUploadGet(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.files.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUploadResponse(u))
}

func (s *Server) handleUploadDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.files.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
