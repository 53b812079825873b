package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/voxfront/voxfront/internal/customer"
)

// createCustomerRequest is the body of POST /api/customers. Optional fields
// inherit the persona defaults when empty.
type createCustomerRequest struct {
	Name            string   `json:"name"`
	AgentName       string   `json:"agent_name"`
	AgentType       string   `json:"agent_type"`
	Voice           string   `json:"voice"`
	Language        string   `json:"language"`
	SystemPrompt    string   `json:"system_prompt"`
	Greeting        string   `json:"greeting"`
	BusinessHours   string   `json:"business_hours"`
	BusinessAddress string   `json:"business_address"`
	Services        []string `json:"services"`
}

// customerSummary is the list/create/update response shape. The full config,
// prompt included, is only returned by the single-customer endpoint.
type customerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AgentName string `json:"agent_name"`
	AgentType string `json:"agent_type"`
	Voice     string `json:"voice"`
	Language  string `json:"language"`
	Active    bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func summarize(c customer.Config) customerSummary {
	return customerSummary{
		ID:        c.ID,
		Name:      c.Name,
		AgentName: c.AgentName,
		AgentType: c.AgentType,
		Voice:     c.Voice,
		Language:  c.Language,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

// handleListCustomers serves GET /api/customers. With ?active_only=true only
// active customers are returned.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	var configs []customer.Config
	if r.URL.Query().Get("active_only") == "true" {
		configs = s.customers.ListActive()
	} else {
		configs = s.customers.ListAll()
	}

	summaries := make([]customerSummary, 0, len(configs))
	for _, c := range configs {
		summaries = append(summaries, summarize(c))
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleCreateCustomer serves POST /api/customers.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	// API-created customers start active, matching registry-seeded ones.
	created, err := s.customers.Create(customer.Config{
		Name:            req.Name,
		Active:          true,
		AgentName:       req.AgentName,
		AgentType:       req.AgentType,
		Voice:           req.Voice,
		Language:        req.Language,
		SystemPrompt:    req.SystemPrompt,
		Greeting:        req.Greeting,
		BusinessHours:   req.BusinessHours,
		BusinessAddress: req.BusinessAddress,
		Services:        req.Services,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("customer created", "id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusOK, summarize(created))
}

// handleGetCustomer serves GET /api/customers/{id} with the full config.
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.customers.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleUpdateCustomer serves PATCH /api/customers/{id}. Only fields present
// in the body are changed; an empty update is rejected.
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var u customer.Updates
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if u.IsZero() {
		writeError(w, http.StatusBadRequest, "no updates provided")
		return
	}

	updated, err := s.customers.Update(r.PathValue("id"), u)
	if err != nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, summarize(updated))
}

// handleDeleteCustomer serves DELETE /api/customers/{id}. The reserved demo
// customer cannot be deleted.
func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.customers.Delete(id)
	if err != nil {
		if errors.Is(err, customer.ErrDefaultProtected) {
			writeError(w, http.StatusBadRequest, "cannot delete demo customer")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	slog.Info("customer deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}
