package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/ingestion"
	"github.com/CSorel-Catalyte/graphdemo/search"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

const (
	defaultK     = search.DefaultMaxHits
	maxK         = 50
	defaultHops  = 1
	defaultLimit = 200
)

type ingestRequest struct {
	DocID string `json:"doc_id" validate:"omitempty,max=256"`
	Text  string `json:"text" validate:"required"`
}

type ingestResponse struct {
	DocID           string  `json:"doc_id"`
	ChunksProcessed int     `json:"chunks_processed"`
	ProcessingTime  float64 `json:"processing_time"`
	Message         string  `json:"message,omitempty"`
}

type searchHit struct {
	broadcast.Node
	Score float32 `json:"score"`
}

type searchResponse struct {
	Query   string      `json:"query"`
	Results []searchHit `json:"results"`
}

type graphResponse struct {
	Nodes []broadcast.Node `json:"nodes"`
	Edges []broadcast.Edge `json:"edges"`
}

type neighborsResponse struct {
	Center string `json:"center"`
	graphResponse
}

type statsResponse struct {
	Entities              int            `json:"entities"`
	Relationships         int            `json:"relationships"`
	EntitiesByType        map[string]int `json:"entities_by_type"`
	RelationsByPredicate  map[string]int `json:"relations_by_predicate"`
	CrossDocumentEntities int            `json:"cross_document_entities"`
	Documents             int            `json:"documents"`
	AverageSalience       float64        `json:"average_salience"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.DocID == "" {
		req.DocID = uuid.NewString()
	}

	n, err := s.service.Ingest(r.Context(), req.DocID, req.Text)
	switch {
	case errors.Is(err, ingestion.ErrAllChunksFailed):
		s.logger.Warn("ingestion failed", "doc_id", req.DocID, "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		s.logger.Error("ingestion error", "doc_id", req.DocID, "chunks", n, "err", err)
		s.respondError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	resp := ingestResponse{
		DocID:           req.DocID,
		ChunksProcessed: n,
		ProcessingTime:  time.Since(start).Seconds(),
	}
	if n == 0 {
		resp.Message = "no content to process"
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "search query cannot be empty")
		return
	}
	k, ok := intParam(r, "k", defaultK)
	if !ok || k < 1 || k > maxK {
		s.respondError(w, http.StatusBadRequest, "k must be between 1 and 50")
		return
	}

	results, err := s.service.Search(r.Context(), q, k)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search error", "query", q, "err", err)
		s.respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resp := searchResponse{Query: q, Results: make([]searchHit, 0, len(results))}
	for _, result := range results {
		resp.Results = append(resp.Results, searchHit{Node: broadcast.NodeFrom(result.Entity), Score: result.Score})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) neighbors(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("node_id"))
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "node_id cannot be empty")
		return
	}
	id, err := broadcast.ParseID(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "node_id is not a valid id")
		return
	}
	hops, ok := intParam(r, "hops", defaultHops)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "hops must be an integer")
		return
	}
	limit, ok := intParam(r, "limit", defaultLimit)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	graph, err := s.service.Neighbors(r.Context(), id, hops, limit)
	switch {
	case errors.Is(err, storage.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "node not found")
		return
	case err != nil:
		s.logger.Error("neighbors error", "node_id", raw, "err", err)
		s.respondError(w, http.StatusInternalServerError, "neighbor expansion failed")
		return
	}
	s.respondJSON(w, http.StatusOK, neighborsResponse{Center: raw, graphResponse: toGraphResponse(graph)})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	graph, err := s.service.Export(r.Context())
	if err != nil {
		s.logger.Error("export error", "err", err)
		s.respondError(w, http.StatusInternalServerError, "export failed")
		return
	}
	s.respondJSON(w, http.StatusOK, toGraphResponse(graph))
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats error", "err", err)
		s.respondError(w, http.StatusInternalServerError, "stats failed")
		return
	}

	resp := statsResponse{
		Entities:              stats.Entities,
		Relationships:         stats.Relationships,
		EntitiesByType:        make(map[string]int, len(stats.EntitiesByType)),
		RelationsByPredicate:  make(map[string]int, len(stats.RelationsByPredicate)),
		CrossDocumentEntities: stats.CrossDocumentEntities,
		Documents:             stats.Documents,
		AverageSalience:       stats.AverageSalience,
	}
	for t, n := range stats.EntitiesByType {
		resp.EntitiesByType[string(t)] = n
	}
	for p, n := range stats.RelationsByPredicate {
		resp.RelationsByPredicate[string(p)] = n
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Health(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Error: err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

func toGraphResponse(g *core.Graph) graphResponse {
	resp := graphResponse{
		Nodes: make([]broadcast.Node, 0, len(g.Entities)),
		Edges: make([]broadcast.Edge, 0, len(g.Relationships)),
	}
	for _, e := range g.Entities {
		resp.Nodes = append(resp.Nodes, broadcast.NodeFrom(e))
	}
	for _, rel := range g.Relationships {
		resp.Edges = append(resp.Edges, broadcast.EdgeFrom(rel))
	}
	return resp
}

// intParam reads an integer query parameter, returning def when it is absent.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
