package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"greenleaf/internal/profile"
)

// Form field names accepted by PATCH /api/profile/.
const (
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldBirthdate    = "birthdate"
	FieldGender       = "gender"
	FieldPhoneNumber  = "phone_number"
	FieldProfileImage = "profile_image"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	snap, err := h.store.Get(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// patchProfile applies the submitted fields over the stored profile.
// Fields missing from the form keep their current value.
func (h *Handler) patchProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	current, err := h.store.Get(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	u := profile.UpdateFrom(current)
	setIfPresent(r, FieldFirstName, &u.FirstName)
	setIfPresent(r, FieldLastName, &u.LastName)
	setIfPresent(r, FieldBirthdate, &u.Birthdate)
	setIfPresent(r, FieldGender, &u.Gender)
	setIfPresent(r, FieldPhoneNumber, &u.PhoneNumber)

	file, header, err := r.FormFile(FieldProfileImage)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeError(w, http.StatusBadRequest, "read profile_image: "+err.Error())
		return
	default:
		defer file.Close()
		tmp, err := saveUpload(file, header)
		if err != nil {
			h.logger.Error("failed to buffer upload", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}
		defer os.Remove(tmp)
		u.ImagePath = tmp
	}

	if err := h.validator.Validate(u); err != nil {
		h.writeStoreError(w, err)
		return
	}

	snap, err := h.store.Put(r.Context(), userID, u)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func setIfPresent(r *http.Request, field string, dst *string) {
	if vals, ok := r.MultipartForm.Value[field]; ok && len(vals) > 0 {
		*dst = strings.TrimSpace(vals[0])
	}
}

// saveUpload copies an uploaded file to a temp file that keeps the original extension.
func saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp("", "greenleaf-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, profile.ErrInvalidField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("profile store failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// MediaRef maps a stored image name to its URL path under MediaPrefix.
func MediaRef(rel string) string {
	return fmt.Sprintf("%s%s", MediaPrefix, strings.TrimPrefix(rel, "/"))
}
