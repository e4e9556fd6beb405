package unifi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ListClients fetches every network client the controller knows about,
// indexed by lowercase MAC. Records without a MAC cannot participate in
// reconciliation and are dropped.
func (s *Session) ListClients(ctx context.Context) (map[string]Client, error) {
	path := fmt.Sprintf("/proxy/network/api/s/%s/rest/user", s.cfg.Site)
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, newRemoteTransportError("list clients", err)
	}
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newRemoteTransportError("list clients", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newRemoteStatusError("list clients", resp.StatusCode, string(text))
	}

	var envelope struct {
		Data []Client `json:"data"`
	}
	if err := json.Unmarshal(text, &envelope); err != nil {
		return nil, newRemoteTransportError("list clients", fmt.Errorf("decoding response: %w", err))
	}

	clients := make(map[string]Client, len(envelope.Data))
	for _, c := range envelope.Data {
		mac := c.MAC()
		if mac == "" {
			continue
		}
		clients[mac] = c
	}
	return clients, nil
}
