package api

import (
	"errors"
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
)

// maxUploadBytes bounds the multipart body. The Seller applies its own,
// usually smaller, limit and answers 413 on its own.
const maxUploadBytes = 32 << 20

func (s *Server) moveCrossConnect(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var mv domain.CrossConnectMove
	if err := decodeJSON(w, r, &mv); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.orders.MoveCrossConnect(r.Context(), &mv, token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, uploadError(err))
		return
	}
	defer file.Close()

	att, err := s.orders.UploadAttachment(r.Context(), header.Filename, file, token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, att)
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apierror.New(http.StatusRequestEntityTooLarge, apierror.AttachmentTooLarge,
			"Attachment exceeds the upload limit", "Payload Too Large")
	case errors.Is(err, http.ErrMissingFile):
		return apierror.Unprocessable(apierror.MissingProperty, "'file' MUST be provided", "file")
	default:
		return apierror.BadRequest(apierror.InvalidBody, "Request body is not a multipart form")
	}
}

func (s *Server) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.orders.DeleteAttachment(r.Context(), r.PathValue("id"), token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
