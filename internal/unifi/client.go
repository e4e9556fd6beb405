package unifi

import "strings"

// Client is one network-client record as the controller returns it. The
// controller owns the schema; only the handful of fields this system reads or
// writes are named here, everything else rides along untouched so updates can
// round-trip the record without destroying it.
type Client map[string]any

func (c Client) str(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c Client) ID() string {
	return c.str("_id")
}

func (c Client) MAC() string {
	return strings.ToLower(c.str("mac"))
}

func (c Client) Name() string {
	return c.str("name")
}

func (c Client) Hostname() string {
	return c.str("hostname")
}

func (c Client) FixedIP() string {
	return c.str("fixed_ip")
}

func (c Client) UseFixedIP() bool {
	v, _ := c["use_fixedip"].(bool)
	return v
}

// NetworkID returns the record's network id, falling back to the legacy
// "network" field older controller builds populate instead.
func (c Client) NetworkID() string {
	if id := c.str("network_id"); id != "" {
		return id
	}
	return c.str("network")
}
