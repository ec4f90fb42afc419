package cluster

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Routes mounts the cluster API on r (typically under /api/v1).
func (s *Service) Routes(r chi.Router) {
	// Cluster management.
	r.Get("/clusters", s.handleList)
	r.Post("/clusters", s.handleCreate)
	r.Get("/clusters/{clusterID}", s.handleGet)
	r.Get("/clusters/{clusterID}/params", s.handleParams)
	r.Put("/clusters/{clusterID}/config", s.handleUpdateConfig)
	r.Post("/clusters/{clusterID}/decommission", s.handleDecommission)

	// Execution.
	r.Post("/clusters/{clusterID}/mint", s.handleMint)
	r.Post("/clusters/{clusterID}/redeem", s.handleRedeem)
	r.Post("/clusters/{clusterID}/simulate/mint", s.handleSimulateMint)
	r.Post("/clusters/{clusterID}/simulate/redeem", s.handleSimulateRedeem)

	// Queries.
	r.Get("/clusters/{clusterID}/history", s.handleHistory)
	r.Get("/clusters/{clusterID}/holders/{userID}", s.handleHolding)
	r.Get("/users/{userID}/history", s.handleUserHistory)

	// Oracle feed.
	r.Put("/oracle/prices", s.handleFeedPrices)
	r.Get("/oracle/prices", s.handlePrices)
}

// --- HTTP Handlers ---

// handleCreate handles POST /api/v1/clusters
func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.Create(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleList handles GET /api/v1/clusters
func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}

// handleGet handles GET /api/v1/clusters/{clusterID}
func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.Get(r.Context(), chi.URLParam(r, "clusterID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleParams handles GET /api/v1/clusters/{clusterID}/params
func (s *Service) handleParams(w http.ResponseWriter, r *http.Request) {
	p, err := s.Params(r.Context(), chi.URLParam(r, "clusterID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpdateConfig handles PUT /api/v1/clusters/{clusterID}/config
func (s *Service) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.UpdateConfig(r.Context(), chi.URLParam(r, "clusterID"), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleDecommission handles POST /api/v1/clusters/{clusterID}/decommission
func (s *Service) handleDecommission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sender string `json:"sender"`
	}
	if !decode(w, r, &req) {
		return
	}
	c, err := s.Decommission(r.Context(), chi.URLParam(r, "clusterID"), req.Sender)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleMint handles POST /api/v1/clusters/{clusterID}/mint
func (s *Service) handleMint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.Mint(r.Context(), chi.URLParam(r, "clusterID"), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRedeem handles POST /api/v1/clusters/{clusterID}/redeem
func (s *Service) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.Redeem(r.Context(), chi.URLParam(r, "clusterID"), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSimulateMint handles POST /api/v1/clusters/{clusterID}/simulate/mint
func (s *Service) handleSimulateMint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetAmounts []decimal.Decimal `json:"asset_amounts"`
	}
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.SimulateMint(r.Context(), chi.URLParam(r, "clusterID"), req.AssetAmounts)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSimulateRedeem handles POST /api/v1/clusters/{clusterID}/simulate/redeem
func (s *Service) handleSimulateRedeem(w http.ResponseWriter, r *http.Request) {
	var req SimulateRedeemRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.SimulateRedeem(r.Context(), chi.URLParam(r, "clusterID"), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory handles GET /api/v1/clusters/{clusterID}/history
func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.History(r.Context(), chi.URLParam(r, "clusterID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleHolding handles GET /api/v1/clusters/{clusterID}/holders/{userID}
func (s *Service) handleHolding(w http.ResponseWriter, r *http.Request) {
	h, err := s.Holding(r.Context(), chi.URLParam(r, "clusterID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// handleUserHistory handles GET /api/v1/users/{userID}/history
func (s *Service) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.UserHistory(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleFeedPrices handles PUT /api/v1/oracle/prices
func (s *Service) handleFeedPrices(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prices map[string]decimal.Decimal `json:"prices"`
	}
	if !decode(w, r, &req) {
		return
	}
	prices, err := s.FeedPrices(r.Context(), req.Prices)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

// handlePrices handles GET /api/v1/oracle/prices
func (s *Service) handlePrices(w http.ResponseWriter, r *http.Request) {
	prices, err := s.Prices(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeErr maps err to its status. Internal failures are logged and
// reported without detail.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeError(w, "internal error", status)
		return
	}
	writeError(w, err.Error(), status)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
