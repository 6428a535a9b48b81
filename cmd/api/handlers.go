package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/goalfolio/goalfolio/pkg/intent"
	"github.com/goalfolio/goalfolio/pkg/logger"
	"github.com/goalfolio/goalfolio/pkg/metrics"
	"github.com/goalfolio/goalfolio/pkg/models"
	"github.com/goalfolio/goalfolio/pkg/quotes"
	"github.com/goalfolio/goalfolio/pkg/recommend"
	"github.com/goalfolio/goalfolio/pkg/redisclient"
	"github.com/goalfolio/goalfolio/pkg/universe"
	"github.com/goalfolio/goalfolio/pkg/validation"
)

type server struct {
	universe   *universe.Universe
	enricher   *quotes.Enricher
	classifier *intent.Classifier
	redis      *redisclient.Client // nil when the in-memory cache is used
	maxSymbols int
}

type errorResponse struct {
	Error  string                      `json:"error"`
	Fields validation.ValidationErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Log.Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidationError(w http.ResponseWriter, errs validation.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: errs})
}

// healthHandler reports liveness.
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readyHandler reports readiness; checks Redis when the shared cache is on.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "quote cache not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type goalInfo struct {
	Goal string `json:"goal"`
	Note string `json:"note,omitempty"`
}

// getGoalsHandler lists the supported goals with their notes.
func (s *server) getGoalsHandler(w http.ResponseWriter, r *http.Request) {
	goals := s.universe.Goals()
	out := make([]goalInfo, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalInfo{Goal: g, Note: s.universe.Note(g)})
	}
	writeJSON(w, http.StatusOK, map[string][]goalInfo{"goals": out})
}

// recommendHandler is the core goal → picks → quotes pipeline.
func (s *server) recommendHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeValidationError(w, err.(validation.ValidationErrors))
		return
	}

	rec, status, errMsg := s.buildRecommendation(r, req.Goal, req.Risk, req.Include, req.Exclude, req.Max)
	if errMsg != "" {
		writeError(w, status, errMsg)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// smartRecommendHandler maps a free-text query to a goal first, then runs
// the same pipeline.
func (s *server) smartRecommendHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SmartRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Normalize()
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err.(validation.ValidationErrors))
		return
	}

	goal, err := s.classifier.Predict(req.Query)
	if err != nil {
		if errors.Is(err, intent.ErrNoMatch) {
			metrics.IntentMisses.Inc()
			writeError(w, http.StatusBadRequest, "could not map query to a goal; try one of: "+strings.Join(s.universe.Goals(), ", "))
			return
		}
		logger.Log.Error("intent prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "intent prediction failed")
		return
	}
	metrics.IntentPredictions.WithLabelValues(goal).Inc()

	rec, status, errMsg := s.buildRecommendation(r, goal, req.Risk, req.Include, req.Exclude, req.Max)
	if errMsg != "" {
		writeError(w, status, errMsg)
		return
	}
	rec.PredictedGoal = goal
	writeJSON(w, http.StatusOK, rec)
}

// buildRecommendation resolves, selects, and enriches. It returns a non-empty
// errMsg with its HTTP status when the request cannot be served.
func (s *server) buildRecommendation(r *http.Request, goal, risk string, include, exclude []string, max int) (*models.Recommendation, int, string) {
	bucket, err := s.universe.Resolve(goal)
	if err != nil {
		// unknown goal: client error, and no provider calls are made
		metrics.UnknownGoalTotal.Inc()
		return nil, http.StatusBadRequest,
			"unknown goal " + goal + "; supported: " + strings.Join(s.universe.Goals(), ", ")
	}

	picks := recommend.Select(bucket, risk, include, exclude, max)
	symbols := make([]string, len(picks))
	for i, p := range picks {
		symbols[i] = p.Symbol
	}

	qs, err := s.enricher.Enrich(r.Context(), symbols)
	if err != nil {
		if errors.Is(err, quotes.ErrProviderUnreachable) {
			logger.Log.Error("provider unreachable", zap.String("goal", goal), zap.Int("symbols", len(symbols)))
			return nil, http.StatusBadGateway, "market data provider unreachable"
		}
		logger.Log.Error("enrich failed", zap.Error(err))
		return nil, http.StatusInternalServerError, "internal server error"
	}

	metrics.RecommendationsTotal.WithLabelValues(goal).Inc()
	return &models.Recommendation{
		Goal:       goal,
		Note:       bucket.Note,
		Picks:      picks,
		Quotes:     qs,
		Disclaimer: models.Disclaimer,
	}, 0, ""
}

type quotesResponse struct {
	Quotes []models.Quote `json:"quotes"`
}

// getQuotesHandler is the raw enricher surface: GET /api/v1/quotes?symbols=A,B
func (s *server) getQuotesHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "missing symbols query param")
		return
	}
	var symbols []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			symbols = append(symbols, p)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols cannot be empty")
		return
	}
	if len(symbols) > s.maxSymbols {
		writeError(w, http.StatusBadRequest, "too many symbols")
		return
	}
	for _, sym := range symbols {
		if errs := validation.ValidateStruct(struct {
			Symbol string `validate:"required,ticker"`
		}{sym}); len(errs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid symbol "+sym)
			return
		}
	}

	qs, err := s.enricher.Enrich(r.Context(), symbols)
	if err != nil {
		if errors.Is(err, quotes.ErrProviderUnreachable) {
			writeError(w, http.StatusBadGateway, "market data provider unreachable")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, quotesResponse{Quotes: qs})
}
