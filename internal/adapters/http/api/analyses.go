package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/okian/sailwind/internal/adapters/ingest"
	service "github.com/okian/sailwind/internal/app"
	"github.com/okian/sailwind/internal/domain/model"
	"github.com/okian/sailwind/pkg/logger"
)

// AnalysesHandler serves /v1/analyses.
type AnalysesHandler struct {
	deps     Dependencies
	cfg      settings
	validate *validator.Validate
}

type listQuery struct {
	Limit int `validate:"gte=1"`
}

type listResponse struct {
	Items []service.Analysis `json:"items"`
	Count int                `json:"count"`
}

// HandleCollection handles POST (create) and GET (list) on /v1/analyses.
func (h *AnalysesHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

// HandleGet handles GET /v1/analyses/{id}.
func (h *AnalysesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/analyses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind("get analysis", ErrNotFound))
		return
	}
	a, err := h.deps.Analysis(r.Context(), id)
	if err != nil {
		h.fail(w, r, Wrap("get analysis", err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysesHandler) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.maxBodyBytes)
	req, err := h.decodeRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.deps.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, r, Wrap("analyze", err))
		return
	}
	w.Header().Set("Location", "/v1/analyses/"+a.ID)
	writeJSON(w, http.StatusCreated, a)
}

func (h *AnalysesHandler) list(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Limit: defaultListLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, WrapKind("list analyses", ErrBadRequest, fmt.Errorf("limit %q is not a number", raw)))
			return
		}
		q.Limit = n
	}
	if err := h.validate.Struct(q); err != nil {
		h.fail(w, r, WrapKind("list analyses", ErrBadRequest, err))
		return
	}
	q.Limit = min(q.Limit, h.cfg.maxListLimit)
	items, err := h.deps.Recent(r.Context(), q.Limit)
	if err != nil {
		h.fail(w, r, Wrap("list analyses", err))
		return
	}
	if items == nil {
		items = []service.Analysis{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (h *AnalysesHandler) decodeRequest(r *http.Request) (service.Request, error) {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil && r.Header.Get("Content-Type") != "" {
		return service.Request{}, WrapKind("decode request", ErrUnsupported, err)
	}
	switch ct {
	case "", "application/json":
		var req service.Request
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return service.Request{}, decodeFailure(err)
		}
		return req, nil
	case "multipart/form-data":
		return h.decodeMultipart(r)
	default:
		return service.Request{}, NewKind("decode request "+ct, ErrUnsupported)
	}
}

// decodeMultipart reads track files from "files" parts, an optional YAML
// course from "course" and the scalar overrides from form values.
func (h *AnalysesHandler) decodeMultipart(r *http.Request) (service.Request, error) {
	if err := r.ParseMultipartForm(h.cfg.maxBodyBytes); err != nil {
		return service.Request{}, decodeFailure(err)
	}
	form := r.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	var req service.Request
	for _, fh := range form.File["files"] {
		b, err := readPart(fh)
		if err != nil {
			return service.Request{}, decodeFailure(err)
		}
		req.Sources = append(req.Sources, model.TrackSource{
			Name:    fh.Filename,
			Format:  ingest.FormatOf(fh.Filename),
			Content: b,
		})
	}
	if parts := form.File["course"]; len(parts) > 0 {
		b, err := readPart(parts[0])
		if err != nil {
			return service.Request{}, decodeFailure(err)
		}
		var c model.Course
		if err := yaml.Unmarshal(b, &c); err != nil {
			return service.Request{}, WrapKind("decode course", ErrBadRequest, err)
		}
		req.Course = &c
	}
	req.VesselType = r.FormValue("vessel_type")
	for key, dst := range map[string]**float64{
		"shift_threshold": &req.ShiftThreshold,
		"min_shift_angle": &req.MinShiftAngle,
	} {
		raw := r.FormValue(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return service.Request{}, WrapKind("decode "+key, ErrBadRequest, err)
		}
		*dst = &v
	}
	return req, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func decodeFailure(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return WrapKind("decode request", ErrTooLarge, err)
	}
	return WrapKind("decode request", ErrBadRequest, err)
}

func (h *AnalysesHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, ErrUnsupported):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		writeError(w, http.StatusServiceUnavailable, "cancelled", WrapKind("request", ErrUnavailable, err))
	default:
		h.cfg.log.Error(r.Context(), "analysis request failed", logger.Error(err), logger.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, "internal", ErrInternalError)
	}
}
