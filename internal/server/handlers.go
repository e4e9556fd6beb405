package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/auto-dns/docker-unifi-sync/internal/inventory"
	"github.com/auto-dns/docker-unifi-sync/internal/unifi"
)

// ErrorResponse is the JSON envelope for every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RouterClient is the display projection of a controller client record.
type RouterClient struct {
	MAC        string `json:"mac"`
	Name       string `json:"name"`
	Hostname   string `json:"hostname"`
	FixedIP    string `json:"fixed_ip"`
	UseFixedIP bool   `json:"use_fixedip"`
}

// StatusResponse is the payload of GET /api/status.
type StatusResponse struct {
	Containers    []inventory.ContainerEntry `json:"containers"`
	RouterClients []RouterClient             `json:"router_clients"`
	Configured    bool                       `json:"configured"`
	VerifySSL     bool                       `json:"verify_ssl"`
	UnifiHost     string                     `json:"unifi_host"`
}

// ApplyRequest is the body of POST /api/apply.
type ApplyRequest struct {
	MAC string `json:"mac"`
}

// ApplyResponse is the success payload of POST /api/apply.
type ApplyResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

const notConfiguredMessage = "UNIFI_HOST plus either UNIFI_API_KEY or UNIFI_USERNAME and UNIFI_PASSWORD must be set as environment variables."

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Unifi.Configured() {
		s.respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: notConfiguredMessage})
		return
	}

	containers, _, err := s.inventory.List(r.Context())
	if err != nil {
		s.respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: fmt.Sprintf("Unable to reach Docker: %v", err)})
		return
	}

	clients, err := s.fetchClients(r)
	if err != nil {
		s.respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: fmt.Sprintf("Unable to reach UniFi: %v", err)})
		return
	}

	routerClients := make([]RouterClient, 0, len(clients))
	for mac, client := range clients {
		name := client.Name()
		if name == "" {
			name = client.Hostname()
		}
		routerClients = append(routerClients, RouterClient{
			MAC:        mac,
			Name:       name,
			Hostname:   client.Hostname(),
			FixedIP:    client.FixedIP(),
			UseFixedIP: client.UseFixedIP(),
		})
	}
	sort.Slice(routerClients, func(i, j int) bool {
		return routerClients[i].MAC < routerClients[j].MAC
	})

	s.respondJSON(w, http.StatusOK, StatusResponse{
		Containers:    containers,
		RouterClients: routerClients,
		Configured:    true,
		VerifySSL:     s.cfg.Unifi.VerifySSL,
		UnifiHost:     s.cfg.Unifi.Host,
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Unifi.Configured() {
		s.respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: notConfiguredMessage})
		return
	}

	// A malformed body is treated the same as a missing mac.
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = ApplyRequest{}
	}
	mac := strings.ToLower(strings.TrimSpace(req.MAC))
	if mac == "" {
		s.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "mac is required"})
		return
	}

	// Re-read the live inventory rather than trusting anything a previous
	// status response showed; the container may have stopped since.
	_, index, err := s.inventory.List(r.Context())
	if err != nil {
		s.respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: fmt.Sprintf("Unable to reach Docker: %v", err)})
		return
	}
	entry, ok := index[mac]
	if !ok {
		s.respondJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("No running container with MAC %s", mac)})
		return
	}

	session, err := s.newSession()
	if err != nil {
		s.respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: fmt.Sprintf("Unable to reach UniFi: %v", err)})
		return
	}
	if err := session.Authenticate(r.Context()); err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	clients, err := session.ListClients(r.Context())
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}

	message, err := session.Upsert(r.Context(), entry, clients[mac])
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ApplyResponse{OK: true, Message: message})
}

// fetchClients builds a session, authenticates, and lists controller clients.
func (s *Server) fetchClients(r *http.Request) (map[string]unifi.Client, error) {
	session, err := s.newSession()
	if err != nil {
		return nil, err
	}
	if err := session.Authenticate(r.Context()); err != nil {
		return nil, err
	}
	return session.ListClients(r.Context())
}

// respondUpstreamError maps controller-side failures onto HTTP statuses:
// a recorded remote status is mirrored, everything else is a 502.
func (s *Server) respondUpstreamError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var remote *unifi.RemoteError
	if errors.As(err, &remote) && remote.StatusCode >= 400 {
		status = remote.StatusCode
	}
	s.respondJSON(w, status, ErrorResponse{Error: fmt.Sprintf("Unable to reach UniFi: %v", err)})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Encoding response")
	}
}
