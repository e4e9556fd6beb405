package unifi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/auto-dns/docker-unifi-sync/internal/config"
	"github.com/auto-dns/docker-unifi-sync/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plexEntry = inventory.ContainerEntry{
	Name:    "plex",
	Network: "br0",
	MAC:     "aa:bb:cc:00:00:01",
	IP:      "10.0.0.50",
}

func TestUpsert_CreatesWhenNoExistingClient(t *testing.T) {
	stub := newControllerStub(t)
	var payload map[string]any
	stub.handle("/proxy/network/api/s/default/rest/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	})
	session := newTestSession(t, config.UnifiConfig{Host: stub.server.URL, APIKey: "k", NetworkID: "net1"})

	message, err := session.Upsert(context.Background(), plexEntry, nil)
	require.NoError(t, err)
	assert.Equal(t, "Created aa:bb:cc:00:00:01 -> plex @ 10.0.0.50", message)
	assert.Equal(t, map[string]any{
		"mac":         "aa:bb:cc:00:00:01",
		"name":        "plex",
		"fixed_ip":    "10.0.0.50",
		"use_fixedip": true,
		"network_id":  "net1",
	}, payload)
}

func TestUpsert_UpdatePreservesUnmanagedFields(t *testing.T) {
	stub := newControllerStub(t)
	var payload map[string]any
	stub.handle("/proxy/network/api/s/default/rest/user/x1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	})
	session := newTestSession(t, config.UnifiConfig{Host: stub.server.URL, APIKey: "k", NetworkID: "net9"})

	existing := Client{
		"_id":        "x1",
		"mac":        "aa:bb:cc:00:00:01",
		"name":       "old",
		"network_id": "net1",
		"note":       "keep-me",
	}
	message, err := session.Upsert(context.Background(), plexEntry, existing)
	require.NoError(t, err)
	assert.Equal(t, "Updated aa:bb:cc:00:00:01 -> plex @ 10.0.0.50", message)

	assert.Equal(t, "keep-me", payload["note"], "fields outside the imposed set survive")
	assert.Equal(t, "plex", payload["name"])
	assert.Equal(t, "10.0.0.50", payload["fixed_ip"])
	assert.Equal(t, true, payload["use_fixedip"])
	assert.Equal(t, "net1", payload["network_id"], "existing network_id wins over the configured default")
	// The merge must not mutate the record it was given.
	assert.Equal(t, "old", existing["name"])
}

func TestUpsert_LegacyNetworkFieldResolvesNetworkID(t *testing.T) {
	stub := newControllerStub(t)
	var payload map[string]any
	stub.handle("/proxy/network/api/s/default/rest/user/x2", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	})
	session := newTestSession(t, config.UnifiConfig{Host: stub.server.URL, APIKey: "k"})

	existing := Client{"_id": "x2", "mac": plexEntry.MAC, "network": "legacy-net"}
	_, err := session.Upsert(context.Background(), plexEntry, existing)
	require.NoError(t, err)
	assert.Equal(t, "legacy-net", payload["network_id"])
}

func TestUpsert_NoResolvableNetworkIDFailsBeforeAnyWrite(t *testing.T) {
	stub := newControllerStub(t)
	session := newTestSession(t, config.UnifiConfig{Host: stub.server.URL, APIKey: "k"})

	_, err := session.Upsert(context.Background(), plexEntry, nil)
	var resErr *ReservationError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, plexEntry.MAC, resErr.MAC)
	assert.Contains(t, err.Error(), plexEntry.MAC)
	assert.Empty(t, stub.requestPaths(), "no network write may be attempted")
}

func TestUpsert_ControllerRejectionCarriesStatusAndBody(t *testing.T) {
	stub := newControllerStub(t)
	stub.handle("/proxy/network/api/s/default/rest/user", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"meta":{"msg":"api.err.IpInvalid"}}`, http.StatusBadRequest)
	})
	session := newTestSession(t, config.UnifiConfig{Host: stub.server.URL, APIKey: "k", NetworkID: "net1"})

	_, err := session.Upsert(context.Background(), plexEntry, nil)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
	assert.Contains(t, remote.Body, "api.err.IpInvalid")
}
