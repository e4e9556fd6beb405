package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDockerClient struct {
	containers []container.Summary
	err        error
}

func (f *fakeDockerClient) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.containers, nil
}

func (f *fakeDockerClient) Close() error {
	return nil
}

func summary(name string, networks map[string]*network.EndpointSettings) container.Summary {
	return container.Summary{
		Names: []string{"/" + name},
		NetworkSettings: &container.NetworkSettingsSummary{
			Networks: networks,
		},
	}
}

func TestList_EmitsEntryPerAttachedNetwork(t *testing.T) {
	cli := &fakeDockerClient{
		containers: []container.Summary{
			summary("plex", map[string]*network.EndpointSettings{
				"br0": {MacAddress: "AA:BB:CC:00:00:01", IPAddress: "10.0.0.50"},
			}),
			summary("grafana", map[string]*network.EndpointSettings{
				"br0":     {MacAddress: "aa:bb:cc:00:00:02", IPAddress: "10.0.0.51"},
				"metrics": {MacAddress: "aa:bb:cc:00:00:03", IPAddress: "172.18.0.4"},
			}),
		},
	}
	reader := NewReader(cli, zerolog.Nop())

	entries, index, err := reader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Len(t, index, 3)

	got := index["aa:bb:cc:00:00:01"]
	assert.Equal(t, "plex", got.Name)
	assert.Equal(t, "br0", got.Network)
	assert.Equal(t, "10.0.0.50", got.IP)
	assert.Equal(t, "aa:bb:cc:00:00:01", got.MAC, "MAC is lowercased")
}

func TestList_SkipsInterfacesMissingMACOrIP(t *testing.T) {
	cli := &fakeDockerClient{
		containers: []container.Summary{
			summary("no-ip", map[string]*network.EndpointSettings{
				"br0": {MacAddress: "aa:bb:cc:00:00:01"},
			}),
			summary("no-mac", map[string]*network.EndpointSettings{
				"br0": {IPAddress: "10.0.0.60"},
			}),
			summary("no-settings", nil),
			{Names: []string{"/nil-network-settings"}},
		},
	}
	reader := NewReader(cli, zerolog.Nop())

	entries, index, err := reader.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, index)
}

func TestList_LastEntryWinsForDuplicateMAC(t *testing.T) {
	cli := &fakeDockerClient{
		containers: []container.Summary{
			summary("first", map[string]*network.EndpointSettings{
				"br0": {MacAddress: "aa:bb:cc:00:00:09", IPAddress: "10.0.0.1"},
			}),
			summary("second", map[string]*network.EndpointSettings{
				"br0": {MacAddress: "AA:BB:CC:00:00:09", IPAddress: "10.0.0.2"},
			}),
		},
	}
	reader := NewReader(cli, zerolog.Nop())

	entries, index, err := reader.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "the list keeps both entries")
	assert.Equal(t, "second", index["aa:bb:cc:00:00:09"].Name)
}

func TestList_SurfacesDockerErrors(t *testing.T) {
	cli := &fakeDockerClient{err: errors.New("cannot connect to the Docker daemon")}
	reader := NewReader(cli, zerolog.Nop())

	_, _, err := reader.List(context.Background())
	require.Error(t, err)
}
