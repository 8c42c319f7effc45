package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/cutout/internal/contour"
	"github.com/MeKo-Tech/cutout/internal/decompose"
	"github.com/MeKo-Tech/cutout/internal/geometry"
	"github.com/MeKo-Tech/cutout/internal/mask"
	"github.com/MeKo-Tech/cutout/internal/pieces"
	"github.com/MeKo-Tech/cutout/internal/version"
	_ "golang.org/x/image/bmp"
)

const formatMask = "mask"

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// traceHandler runs the full image-to-pieces pipeline on an uploaded
// image.
func (s *Server) traceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, status, errMsg := s.readUploadedImage(w, r)
	if errMsg != "" {
		s.writeErrorResponse(w, errMsg, status)
		return
	}

	opts, err := parseRequestOptions(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	pl, err := s.requestPipeline(opts)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid options: %v", err), http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := pl.Process(img)
	duration := time.Since(start)

	if err != nil {
		traceRequestsTotal.WithLabelValues("error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Processing failed: %v", err), statusForPipelineError(err))
		return
	}

	traceRequestsTotal.WithLabelValues("success").Inc()
	traceProcessingDuration.Observe(duration.Seconds())
	pieceCount.Observe(float64(res.Achieved))

	// Mask output returns the binary subject mask as a PNG instead of
	// the piece document.
	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}
	if format == formatMask {
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, res.Mask.ToImage())
		return
	}

	doc := pieces.NewDocument(res.Pieces, res.Width, res.Height, res.Degraded)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TraceResponse{Success: true, Result: &doc}); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding trace response: %v\n", err)
	}
}

// decomposeHandler splits a caller-supplied silhouette without running
// the image stages.
func (s *Server) decomposeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	var req DecomposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Polygon) < 3 {
		s.writeErrorResponse(w, "Polygon needs at least 3 vertices", http.StatusBadRequest)
		return
	}
	if req.Pieces < 1 {
		s.writeErrorResponse(w, "Piece count must be at least 1", http.StatusBadRequest)
		return
	}

	silhouette := make([]geometry.Point, len(req.Polygon))
	for i, v := range req.Polygon {
		silhouette[i] = geometry.Point{X: v[0], Y: v[1]}
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	res := decompose.Decompose(silhouette, req.Pieces, rng)
	assembled := pieces.Assemble(res.Polygons, rng)
	decomposeProcessingDuration.Observe(time.Since(start).Seconds())
	pieceCount.Observe(float64(res.Achieved))

	response := DecomposeResponse{
		Success:  true,
		Achieved: res.Achieved,
		Degraded: res.Degraded,
		Pieces:   make([]pieces.PieceDocument, 0, len(assembled)),
	}
	for _, p := range assembled {
		response.Pieces = append(response.Pieces, pieces.NewPieceDocument(p))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding decompose response: %v\n", err)
	}
}

// readUploadedImage extracts and decodes the multipart "image" upload.
// It returns a non-empty message and status on failure.
func (s *Server) readUploadedImage(w http.ResponseWriter, r *http.Request) (image.Image, int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			return nil, http.StatusRequestEntityTooLarge, "File too large"
		}
		return nil, http.StatusBadRequest, "Failed to parse form data"
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, http.StatusBadRequest, "No image file provided"
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		return nil, http.StatusRequestEntityTooLarge, "File too large"
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to read image data"
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, http.StatusBadRequest, "Invalid image format"
	}
	return img, 0, ""
}

// parseRequestOptions reads per-request pipeline overrides from form
// or query values.
func parseRequestOptions(r *http.Request) (requestOptions, error) {
	var opts requestOptions

	get := func(key string) string {
		if v := r.FormValue(key); v != "" {
			return v
		}
		return r.URL.Query().Get(key)
	}

	if v := get("pieces"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid pieces value: %q", v)
		}
		opts.pieces = n
	}
	if v := get("tolerance"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return opts, fmt.Errorf("invalid tolerance value: %q", v)
		}
		opts.tolerance = &n
	}
	if v := get("simplify"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("invalid simplify value: %q", v)
		}
		opts.simplify = &f
	}
	if v := get("interior"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid interior value: %q", v)
		}
		opts.interior = &b
	}
	if v := get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid seed value: %q", v)
		}
		opts.seed = n
	}
	return opts, nil
}

// statusForPipelineError maps pipeline failures to HTTP status codes.
// An image in which no subject or closed outline can be found is a
// problem with the input, not the server.
func statusForPipelineError(err error) int {
	if errors.Is(err, mask.ErrNoSubjectDetected) || errors.Is(err, contour.ErrNoClosedLoop) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := TraceResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error, but can't send another response
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}
