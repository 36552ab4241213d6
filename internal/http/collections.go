package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-cms-locales/internal/documents"
	"github.com/goliatone/go-cms-locales/internal/entries"
	"github.com/goliatone/go-cms-locales/internal/locale"
	"github.com/goliatone/go-cms-locales/internal/mutation"
	"github.com/goliatone/go-cms-locales/internal/permissions"
)

type dataResponse struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

type listMeta struct {
	Pagination entries.Pagination `json:"pagination"`
}

type localeMeta struct {
	Locale localeFallback `json:"locale"`
}

type localeFallback struct {
	Requested string `json:"requested"`
	Returned  string `json:"returned"`
	Fallback  bool   `json:"fallback"`
}

type deleteMeta struct {
	Deleted  bool   `json:"deleted"`
	Method   string `json:"method"`
	Verified bool   `json:"verified"`
}

func (api *API) registerCollectionRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "{collection}")
	mux.Handle("GET "+root, api.wrap(api.handleList))
	mux.Handle("POST "+root, api.wrap(api.handleCreate))
	mux.Handle("GET "+root+"/{id}", api.wrap(api.handleGet))
	mux.Handle("PUT "+root+"/{id}", api.wrap(api.handleUpdate))
	mux.Handle("DELETE "+root+"/{id}", api.wrap(api.handleDelete))
}

// collection returns the routed collection after checking it is served and
// the actor holds action on it.
func (api *API) collection(w http.ResponseWriter, r *http.Request, action permissions.Action) (string, bool) {
	collection := strings.TrimSpace(r.PathValue("collection"))
	if !api.serves(collection) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "unknown collection " + collection})
		return "", false
	}
	if !requirePermission(w, r, permissions.Join(collection, action)) {
		return "", false
	}
	return collection, true
}

func requestLocale(r *http.Request) locale.Code {
	code, _ := locale.FromContext(r.Context())
	return code
}

func (api *API) handleList(w http.ResponseWriter, r *http.Request) {
	collection, ok := api.collection(w, r, permissions.ActionFind)
	if !ok {
		return
	}
	query := r.URL.Query()
	result, err := api.entries.List(r.Context(), collection, entries.ListQuery{
		Locale:    requestLocale(r),
		DateFrom:  query.Get("date_from"),
		DateTo:    query.Get("date_to"),
		Upcoming:  parseBoolQuery(query.Get("upcoming"), false),
		Page:      parseIntQuery(query.Get("page"), 1),
		PageSize:  parseIntQuery(query.Get("pageSize"), 0),
		Sort:      query.Get("sort"),
		Populate:  splitList(query.Get("populate")),
		Anonymous: permissions.ActorFromContext(r.Context()).Anonymous(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{
		Data: result.Data,
		Meta: listMeta{Pagination: result.Pagination},
	})
}

func (api *API) handleGet(w http.ResponseWriter, r *http.Request) {
	collection, ok := api.collection(w, r, permissions.ActionFindOne)
	if !ok {
		return
	}
	result, err := api.entries.Get(r.Context(), collection, entries.GetQuery{
		ID:        r.PathValue("id"),
		Locale:    requestLocale(r),
		Populate:  splitList(r.URL.Query().Get("populate")),
		Anonymous: permissions.ActorFromContext(r.Context()).Anonymous(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response := dataResponse{Data: result.Record}
	if result.Fallback {
		response.Meta = localeMeta{Locale: localeFallback{
			Requested: result.Requested.String(),
			Returned:  result.Returned.String(),
			Fallback:  true,
		}}
	}
	writeJSON(w, http.StatusOK, response)
}

func (api *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection, ok := api.collection(w, r, permissions.ActionCreate)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	record, err := api.entries.Create(r.Context(), collection, api.payloadLocale(r, payload), payload.data, splitList(r.URL.Query().Get("populate")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: record})
}

func (api *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	collection, ok := api.collection(w, r, permissions.ActionUpdate)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	record, err := api.entries.Update(r.Context(), collection, r.PathValue("id"), api.payloadLocale(r, payload), payload.data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: record})
}

func (api *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection, ok := api.collection(w, r, permissions.ActionDelete)
	if !ok {
		return
	}
	result, err := api.entries.Delete(r.Context(), collection, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{
		Data: result.Record,
		Meta: deleteMeta{
			Deleted:  true,
			Method:   result.Method,
			Verified: result.Status == mutation.DeletionVerified,
		},
	})
}

// mutationPayload is a write body in either the {locale?, data: {...}} or the
// bare attribute shape.
type mutationPayload struct {
	locale string
	data   map[string]any
}

// decodePayload reads a JSON body and unwraps a "data" object. The locale is
// taken from the envelope, then from the attributes.
func decodePayload(w http.ResponseWriter, r *http.Request) (mutationPayload, bool) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return mutationPayload{}, false
	}
	if body == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: documents.ErrInvalidRecord.Error()})
		return mutationPayload{}, false
	}
	payload := mutationPayload{data: body}
	if inner, ok := body["data"].(map[string]any); ok {
		payload.data = inner
	}
	for _, source := range []map[string]any{body, payload.data} {
		if value, ok := source["locale"].(string); ok && strings.TrimSpace(value) != "" {
			payload.locale = value
			break
		}
	}
	return payload, true
}

// payloadLocale picks the locale a write targets: an explicit ?locale= wins,
// then a supported body locale, then the negotiated one.
func (api *API) payloadLocale(r *http.Request, payload mutationPayload) locale.Code {
	code := requestLocale(r)
	if locale.IsExplicit(r.Context()) || payload.locale == "" {
		return code
	}
	if candidate := locale.Normalize(payload.locale); api.negotiator.Set().Supports(candidate) {
		return candidate
	}
	return code
}
