package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/service"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/httputil"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/pagination"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/validator"
)

// DefaultMaxImageBytes caps product image uploads when no limit is set.
const DefaultMaxImageBytes = 5 << 20

// multipartOverhead is the slack allowed above the image size for the
// other form fields and part headers.
const multipartOverhead = 1 << 20

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	products      *service.ProductService
	reviews       *service.ReviewService
	maxImageBytes int64
	logger        *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(products *service.ProductService, reviews *service.ReviewService, maxImageBytes int64, logger *slog.Logger) *ProductHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}
	return &ProductHandler{
		products:      products,
		reviews:       reviews,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// --- Request DTOs ---

// PreviewRequest is the JSON body for an AI review preview.
type PreviewRequest struct {
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=5"`
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.products.ListProducts(r.Context(), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// GetProduct handles GET /api/v1/products/{id}. The payload carries the
// product, its AI review, its user reviews and aggregate counts.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	detail, err := h.products.GetProductDetail(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail)
}

// CreateProduct handles POST /api/v1/products as multipart/form-data with
// name, description, price and an image file.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteErrorCode(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "image exceeds the upload limit")
			return
		}
		httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "Missing required fields")
		return
	}
	defer file.Close()

	if header.Size > h.maxImageBytes {
		httputil.WriteErrorCode(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "image exceeds the upload limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "image must be an image file")
		return
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil {
		httputil.WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", "Missing required fields")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), service.CreateProductInput{
		Name:             r.FormValue("name"),
		Description:      r.FormValue("description"),
		Price:            price,
		Image:            file,
		ImageName:        header.Filename,
		ImageContentType: contentType,
		ImageSize:        header.Size,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// PreviewAIReview handles POST /api/v1/products/{id}/ai-review/preview. The
// draft is returned but never stored.
func (h *ProductHandler) PreviewAIReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req PreviewRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	preview, err := h.reviews.PreviewAIReview(r.Context(), id.String(), *req.Rating)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, preview)
}
