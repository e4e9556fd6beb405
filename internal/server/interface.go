package server

import (
	"context"

	"github.com/auto-dns/docker-unifi-sync/internal/inventory"
	"github.com/auto-dns/docker-unifi-sync/internal/unifi"
)

type inventoryLister interface {
	List(ctx context.Context) ([]inventory.ContainerEntry, map[string]inventory.ContainerEntry, error)
}

// Session is the slice of the controller session the facade needs.
type Session interface {
	Authenticate(ctx context.Context) error
	ListClients(ctx context.Context) (map[string]unifi.Client, error)
	Upsert(ctx context.Context, entry inventory.ContainerEntry, existing unifi.Client) (string, error)
}

// SessionFactory builds a fresh controller session per request cycle;
// sessions carry per-authentication cookie state and are never reused.
type SessionFactory func() (Session, error)
