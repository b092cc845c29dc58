// Package httpapi exposes the scoring, embedding, and similarity operations
// over a chi-routed JSON API.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
	embeddinguc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/embedding"
	healthuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/health"
	productuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/product"
	scoreuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/score"
	similarityuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/similarity"
)

// Server wires the use case services to HTTP handlers.
type Server struct {
	score      *scoreuc.Service
	embeddings *embeddinguc.Service
	similarity *similarityuc.Service
	products   *productuc.Service
	health     *healthuc.Service
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	score *scoreuc.Service,
	embeddings *embeddinguc.Service,
	similarity *similarityuc.Service,
	products *productuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		score:      score,
		embeddings: embeddings,
		similarity: similarity,
		products:   products,
		health:     health,
		logger:     logger,
	}
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/score", s.handleScore)
	r.Post("/api/v1/embeddings", s.handleCreateEmbedding)
	r.Post("/api/v1/products", s.handleCreateProduct)
	r.Put("/api/v1/products/{id}", s.handleUpsertProduct)
	r.Get("/api/v1/products/{id}", s.handleGetProduct)
	r.Delete("/api/v1/products/{id}", s.handleDeleteProduct)
	r.Get("/api/v1/products/{id}/similar", s.handleSimilar)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

// handleScore handles POST /api/v1/score. Attributes take the pure scoring
// path; an image goes through the vision collaborator.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	refs, err := referencesFromDTO(req.TrendReferences)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var result scoreuc.Assessment
	switch {
	case req.ProductAttributes != nil:
		attrs := trendAttributes(req.ProductAttributes)
		result, err = s.score.ScoreAttributes(attrs, refs, req.EstimatedPrice, req.EstimatedCost)
	case req.ImageBase64 != "":
		var image []byte
		image, err = decodeImage(req.ImageBase64)
		if err == nil {
			result, err = s.score.ScoreImage(r.Context(), image, refs, req.EstimatedPrice, req.EstimatedCost)
		}
	default:
		writeError(w, http.StatusBadRequest, codeInvalidInput,
			"either product_attributes or image_base64 is required")
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assessmentToDTO(result))
}

// handleCreateEmbedding handles POST /api/v1/embeddings.
func (s *Server) handleCreateEmbedding(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	rec, cached, err := s.embeddings.GetOrCreate(r.Context(), image, req.ImageRef)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if req.ProductID != "" {
		if _, err := s.products.LinkImage(r.Context(), req.ProductID, rec.ImageHash); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	writeJSON(w, status, embedResponse{EmbeddingID: rec.ImageHash, Cached: cached})
}

// handleCreateProduct handles POST /api/v1/products (server-assigned id).
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	s.upsertProduct(w, r, "")
}

// handleUpsertProduct handles PUT /api/v1/products/{id}.
func (s *Server) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	s.upsertProduct(w, r, chi.URLParam(r, "id"))
}

func (s *Server) upsertProduct(w http.ResponseWriter, r *http.Request, id string) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	image, err := decodeImage(req.ImageBase64)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	summary := domain.ProductSummary{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
	}
	stored, created, err := s.products.Upsert(r.Context(), summary, image, req.ImageRef)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/v1/products/"+stored.ID)
	}
	writeJSON(w, status, productToDTO(stored))
}

// handleGetProduct handles GET /api/v1/products/{id}.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productToDTO(p))
}

// handleDeleteProduct handles DELETE /api/v1/products/{id}.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSimilar handles GET /api/v1/products/{id}/similar.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "limit must be an integer >= 1")
			return
		}
		limit = parsed
	}

	source, matches, err := s.similarity.Similar(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]similarityResultDTO, len(matches))
	for i, m := range matches {
		results[i] = similarityResultDTO{Product: productToDTO(m.Product), Similarity: m.Similarity}
	}
	writeJSON(w, http.StatusOK, similarResponse{
		SourceProduct:   productToDTO(source),
		SimilarProducts: results,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	writeJSON(w, status, map[string]any{
		"status": string(report.Status),
		"checks": checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range domainErrorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("Unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
