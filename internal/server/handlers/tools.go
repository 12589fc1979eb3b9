package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/registry"
	apperrors "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/server/middleware"
)

// maxArgumentBytes bounds the JSON body of a tool invocation.
const maxArgumentBytes = 1 << 20

// ToolListResponse is the body of GET /v1/tools.
type ToolListResponse struct {
	Tier  string              `json:"tier"`
	Count int                 `json:"count"`
	Tools []registry.ToolInfo `json:"tools"`
}

// ToolResultResponse is the body of a successful POST /v1/tools/{name}.
type ToolResultResponse struct {
	Tool      string `json:"tool"`
	RequestID string `json:"request_id,omitempty"`
	Result    any    `json:"result"`
}

// ToolsHandler serves the tool registry over REST.
type ToolsHandler struct {
	registry *registry.Registry
}

// NewToolsHandler returns handlers bound to reg.
func NewToolsHandler(reg *registry.Registry) *ToolsHandler {
	return &ToolsHandler{registry: reg}
}

// List handles GET /v1/tools.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	tools := h.registry.List()
	writeJSON(w, http.StatusOK, ToolListResponse{
		Tier:  h.registry.Tier().String(),
		Count: len(tools),
		Tools: tools,
	})
}

// Describe handles GET /v1/tools/{name}.
func (h *ToolsHandler) Describe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, info := range h.registry.List() {
		if info.Name == name {
			writeJSON(w, http.StatusOK, info)
			return
		}
	}
	respondWithError(w, r, apperrors.FromCore(r.Context(), &core.UnknownToolError{Name: name}))
}

// Invoke handles POST /v1/tools/{name}. An empty body means no arguments.
func (h *ToolsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args, err := decodeArguments(r.Body)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be a JSON object of tool arguments"))
		return
	}

	result, err := h.registry.Invoke(r.Context(), name, args)
	if err != nil {
		respondWithError(w, r, apperrors.FromCore(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, ToolResultResponse{
		Tool:      name,
		RequestID: middleware.GetRequestID(r.Context()),
		Result:    result,
	})
}

// Subscription handles GET /v1/subscription.
func (h *ToolsHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Subscription(r.Context()))
}

func decodeArguments(body io.Reader) (map[string]any, error) {
	if body == nil {
		return nil, nil
	}

	decoder := json.NewDecoder(io.LimitReader(body, maxArgumentBytes))
	decoder.UseNumber()

	var args map[string]any
	if err := decoder.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after arguments object")
	}
	return args, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
