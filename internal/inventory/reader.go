package inventory

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/rs/zerolog"
)

// ContainerEntry is one (container, attached network) identity pair. A
// container attached to several networks yields several entries.
type ContainerEntry struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	MAC     string `json:"mac"`
	IP      string `json:"ip"`
}

// Reader lists running containers and their network identities.
type Reader struct {
	logger zerolog.Logger
	cli    dockerClient
}

func NewReader(cli dockerClient, logger zerolog.Logger) *Reader {
	return &Reader{
		logger: logger,
		cli:    cli,
	}
}

// List returns every running container's per-network identity, plus an index
// keyed by lowercase MAC. Interfaces missing either a MAC or an IP cannot be
// matched against the controller and are skipped. When two entries share a
// MAC, the last one listed wins in the index.
func (r *Reader) List(ctx context.Context) ([]ContainerEntry, map[string]ContainerEntry, error) {
	containers, err := r.cli.ContainerList(ctx, container.ListOptions{All: false})
	if err != nil {
		return nil, nil, err
	}

	entries := []ContainerEntry{}
	index := make(map[string]ContainerEntry)
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		if c.NetworkSettings == nil {
			continue
		}
		for netName, endpoint := range c.NetworkSettings.Networks {
			if endpoint == nil || endpoint.MacAddress == "" || endpoint.IPAddress == "" {
				r.logger.Debug().Str("container", name).Str("network", netName).Msg("Skipping interface without MAC and IP")
				continue
			}
			entry := ContainerEntry{
				Name:    name,
				Network: netName,
				MAC:     strings.ToLower(endpoint.MacAddress),
				IP:      endpoint.IPAddress,
			}
			entries = append(entries, entry)
			index[entry.MAC] = entry
		}
	}
	return entries, index, nil
}

func (r *Reader) Close() error {
	return r.cli.Close()
}
