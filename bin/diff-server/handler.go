package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	diffimage "img-compare/internal/diff/image"
	"img-compare/internal/imageio"
	"img-compare/internal/myhttp"
	"img-compare/internal/report"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

type DiffResponse struct {
	DiffData    string `json:"diffData"`
	ContentType string `json:"contentType"`
	*report.Output
}

type diffHandler struct {
	maxPixels            int64
	comparedPixelsTotal  metric.Int64Counter
	differentPixelsTotal metric.Int64Counter
	defaultMergeDistance int
}

func newDiffHandler(meter metric.Meter, maxPixels int64, defaultMergeDistance int) (*diffHandler, error) {
	comparedPixelsTotal, err := meter.Int64Counter("diff_compared_pixels_total")
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}
	differentPixelsTotal, err := meter.Int64Counter("diff_different_pixels_total")
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}

	return &diffHandler{
		maxPixels:            maxPixels,
		comparedPixelsTotal:  comparedPixelsTotal,
		differentPixelsTotal: differentPixelsTotal,
		defaultMergeDistance: defaultMergeDistance,
	}, nil
}

func (h *diffHandler) handleDiff(w http.ResponseWriter, r *http.Request) {
	logger := myhttp.Logger(r.Context())

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	format := r.FormValue("format")
	switch format {
	case "":
		format = "png"
	case "png", "bmp", "tif", "tiff", "tga":
	default:
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	differ, err := h.newDiffer(r)
	if err != nil {
		logger.Debug("invalid diff parameters", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	baseline, err := h.readImage(r, "baseline")
	if err != nil {
		logger.Debug("failed to read baseline", "error", err)
		status := readErrorStatus(err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	target, err := h.readImage(r, "target")
	if err != nil {
		logger.Debug("failed to read target", "error", err)
		status := readErrorStatus(err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	result, err := differ.Calculate(baseline, target)
	if err != nil {
		var mismatch *diffimage.DimensionMismatchError
		switch {
		case errors.As(err, &mismatch):
			http.Error(w, mismatch.Error(), http.StatusBadRequest)
		case errors.Is(err, diffimage.ErrAllocationFailure):
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		default:
			logger.Error("failed to compare images", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	attributes := metric.WithAttributes(attribute.Key("handler").String("diff"))
	h.comparedPixelsTotal.Add(r.Context(), int64(baseline.Width*baseline.Height), attributes)
	h.differentPixelsTotal.Add(r.Context(), int64(result.DifferentPixels), attributes)

	name := "diff." + format
	data, err := imageio.Encode(name, result.Image)
	if err != nil {
		logger.Error("failed to encode diff image", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(DiffResponse{
		DiffData:    base64.StdEncoding.EncodeToString(data),
		ContentType: imageio.ContentType(name),
		Output:      report.New("", result),
	}); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (h *diffHandler) newDiffer(r *http.Request) (*diffimage.PixelDiff, error) {
	ratio := diffimage.DefaultWashOutRatio
	if v := r.FormValue("washOutRatio"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, xerrors.Errorf("invalid washOutRatio: %w", err)
		}
		ratio = parsed
	}

	differ, err := diffimage.NewPixelDiff(ratio)
	if err != nil {
		return nil, err
	}
	differ.WithMaxPixels(h.maxPixels)

	if v := r.FormValue("regions"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, xerrors.Errorf("invalid regions: %w", err)
		}
		if enabled {
			differ.WithRegions(h.defaultMergeDistance)
		}
	}

	return differ, nil
}

func (h *diffHandler) readImage(r *http.Request, field string) (*diffimage.Buffer, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, xerrors.Errorf("missing %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s: %w", field, err)
	}

	return imageio.Decode(header.Filename, data, h.maxPixels)
}

func readErrorStatus(err error) int {
	if errors.Is(err, diffimage.ErrAllocationFailure) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
