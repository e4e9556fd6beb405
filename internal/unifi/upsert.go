package unifi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/auto-dns/docker-unifi-sync/internal/inventory"
)

// Upsert pushes a container's name and IP into the controller as a fixed-IP
// reservation for its MAC: an update when the controller already knows the
// MAC, a create otherwise. On update, every controller-side field outside
// the imposed set is carried over unchanged.
func (s *Session) Upsert(ctx context.Context, entry inventory.ContainerEntry, existing Client) (string, error) {
	networkID := s.cfg.NetworkID
	if existing != nil {
		if id := existing.NetworkID(); id != "" {
			networkID = id
		}
	}
	if networkID == "" {
		return "", NewReservationError(entry.MAC)
	}

	desired := map[string]any{
		"name":        entry.Name,
		"fixed_ip":    entry.IP,
		"use_fixedip": true,
		"network_id":  networkID,
	}

	if existing != nil {
		payload := make(map[string]any, len(existing)+len(desired))
		for key, value := range existing {
			payload[key] = value
		}
		for key, value := range desired {
			payload[key] = value
		}
		path := fmt.Sprintf("/proxy/network/api/s/%s/rest/user/%s", s.cfg.Site, existing.ID())
		if err := s.write(ctx, http.MethodPut, path, payload); err != nil {
			return "", err
		}
		s.logger.Info().Str("mac", entry.MAC).Str("name", entry.Name).Str("ip", entry.IP).Msg("Updated fixed-IP reservation")
		return fmt.Sprintf("Updated %s -> %s @ %s", entry.MAC, entry.Name, entry.IP), nil
	}

	payload := map[string]any{"mac": entry.MAC}
	for key, value := range desired {
		payload[key] = value
	}
	path := fmt.Sprintf("/proxy/network/api/s/%s/rest/user", s.cfg.Site)
	if err := s.write(ctx, http.MethodPost, path, payload); err != nil {
		return "", err
	}
	s.logger.Info().Str("mac", entry.MAC).Str("name", entry.Name).Str("ip", entry.IP).Msg("Created fixed-IP reservation")
	return fmt.Sprintf("Created %s -> %s @ %s", entry.MAC, entry.Name, entry.IP), nil
}

func (s *Session) write(ctx context.Context, method, path string, payload map[string]any) error {
	resp, err := s.do(ctx, method, path, payload)
	if err != nil {
		return newRemoteTransportError("upsert", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return newRemoteStatusError("upsert", resp.StatusCode, string(text))
	}
	return nil
}
