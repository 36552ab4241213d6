package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-locales/internal/forms"
	"github.com/goliatone/go-cms-locales/internal/permissions"
	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

func (api *API) registerFormRoutes(mux *http.ServeMux, base string) {
	if mux == nil || api.forms == nil {
		return
	}
	formsRoot := joinPath(base, forms.Collection)
	mux.Handle("GET "+formsRoot+"/{slug}", api.wrap(api.handleFormGet))
	mux.Handle("POST "+formsRoot+"/{slug}/submit", api.wrap(api.handleFormSubmit))
	mux.Handle("GET "+joinPath(base, permissions.ResourceSubmissions)+"/{id}/pdf", api.wrap(api.handleSubmissionPDF))
}

func (api *API) handleFormGet(w http.ResponseWriter, r *http.Request) {
	form, err := api.forms.FindBySlug(r.Context(), r.PathValue("slug"), requestLocale(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form.Public())
}

func (api *API) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	data, uploads, err := api.readSubmission(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	result, err := api.forms.Submit(r.Context(), forms.SubmitRequest{
		Slug:      r.PathValue("slug"),
		Locale:    requestLocale(r),
		Data:      data,
		Files:     uploads,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *API) handleSubmissionPDF(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, permissions.Join(permissions.ResourceSubmissions, permissions.ActionPDF)) {
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	file, content, err := api.forms.DownloadPDF(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	name := file.Name
	if name == "" {
		name = fmt.Sprintf("submission-%s.pdf", id)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// readSubmission accepts JSON or multipart bodies. Either may carry the
// answers under "data" (an object, or a JSON string in multipart forms);
// otherwise the whole body is the answer set.
func (api *API) readSubmission(w http.ResponseWriter, r *http.Request) (map[string]any, []interfaces.FileUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body map[string]any
		if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, err
		}
		if inner, ok := body["data"].(map[string]any); ok {
			return inner, nil, nil
		}
		delete(body, "files")
		return body, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, api.uploadMaxBytes)
	if err := r.ParseMultipartForm(api.uploadMaxBytes); err != nil {
		return nil, nil, err
	}
	data := map[string]any{}
	if raw := r.MultipartForm.Value["data"]; len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw[0]), &data); err != nil {
			return nil, nil, fmt.Errorf("data: %w", err)
		}
	} else {
		for key, values := range r.MultipartForm.Value {
			if len(values) == 1 {
				data[key] = values[0]
			} else {
				data[key] = append([]string(nil), values...)
			}
		}
	}

	var uploads []interfaces.FileUpload
	for field, headers := range r.MultipartForm.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				return nil, nil, err
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				return nil, nil, err
			}
			uploads = append(uploads, interfaces.FileUpload{
				Field:       field,
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        content,
			})
		}
	}
	return data, uploads, nil
}
