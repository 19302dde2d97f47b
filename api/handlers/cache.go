package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/semcache/api"
	"github.com/BaSui01/semcache/cache"
	"github.com/BaSui01/semcache/types"
)

// =============================================================================
// 🗄️ Cache Handler
// =============================================================================

// CacheHandler serves the cache API endpoints on top of a cache.Service.
type CacheHandler struct {
	svc    *cache.Service
	logger *zap.Logger
}

// NewCacheHandler creates a cache handler.
func NewCacheHandler(svc *cache.Service, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		svc:    svc,
		logger: logger.With(zap.String("handler", "cache")),
	}
}

// HandleLookup handles POST /api/v1/cache/lookup.
// @Summary Cache lookup
// @Description Attempts an exact-then-semantic cache lookup for a generation request
// @Tags cache
// @Accept json
// @Produce json
// @Param request body api.LookupRequest true "Lookup request"
// @Success 200 {object} Response{data=api.LookupResponse} "Lookup outcome"
// @Failure 400 {object} Response "Invalid request"
// @Router /api/v1/cache/lookup [post]
func (h *CacheHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.LookupRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := validateScope(req.WorkspaceID, req.Endpoint, req.Request); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	result := h.svc.Lookup(r.Context(), req.Request, req.Endpoint, req.WorkspaceID, &cache.LookupOptions{
		Threshold:           req.Threshold,
		ConversationContext: req.ConversationID,
	})

	WriteSuccess(w, api.LookupResponse{
		Hit:       result.Hit,
		CacheType: result.CacheType,
		Response:  result.Response,
	})
}

// HandleStore handles POST /api/v1/cache/store.
// @Summary Cache store
// @Description Persists a fresh upstream response for future lookups
// @Tags cache
// @Accept json
// @Produce json
// @Param request body api.StoreRequest true "Store request"
// @Success 200 {object} Response{data=api.StoreResponse} "Store outcome"
// @Failure 400 {object} Response "Invalid request"
// @Router /api/v1/cache/store [post]
func (h *CacheHandler) HandleStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.StoreRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if err := validateScope(req.WorkspaceID, req.Endpoint, req.Request); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if len(req.Response) == 0 {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "response is required"), h.logger)
		return
	}

	stored := h.svc.Store(r.Context(), req.Request, req.Response, req.Endpoint, req.WorkspaceID)
	WriteSuccess(w, api.StoreResponse{Stored: stored})
}

// HandleClear handles POST /api/v1/cache/clear.
// @Summary Cache clear
// @Description Bulk-removes cached entries for a workspace/endpoint scope
// @Tags cache
// @Accept json
// @Produce json
// @Param request body api.ClearRequest true "Clear request"
// @Success 200 {object} Response{data=api.ClearResponse} "Number of removed entries"
// @Router /api/v1/cache/clear [post]
func (h *CacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.ClearRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Endpoint != "" && !req.Endpoint.Valid() {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "endpoint must be completion or chat"), h.logger)
		return
	}

	removed := h.svc.ClearScope(r.Context(), req.WorkspaceID, req.Endpoint)
	WriteSuccess(w, api.ClearResponse{Removed: removed})
}

// HandleStats handles GET /api/v1/cache/stats.
// @Summary Cache statistics
// @Description Reports store connectivity, entry count, hit counters, and tokens saved
// @Tags cache
// @Produce json
// @Success 200 {object} Response{data=api.StatsResponse} "Statistics"
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	stats := h.svc.Stats(r.Context())
	WriteSuccess(w, stats)
}

func validateScope(workspaceID string, endpoint types.EndpointType, req *types.GenerationRequest) *types.Error {
	if workspaceID == "" {
		return types.NewError(types.ErrInvalidRequest, "workspace_id is required")
	}
	if !endpoint.Valid() {
		return types.NewError(types.ErrInvalidRequest, "endpoint must be completion or chat")
	}
	if req == nil {
		return types.NewError(types.ErrInvalidRequest, "request is required")
	}
	return nil
}
