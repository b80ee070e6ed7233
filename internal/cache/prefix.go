package cache

import "fmt"

// Prefix namespaces cache keys by purpose.
type Prefix string

const (
	// GatewayMessages maps a gateway-assigned message id to our message UUID.
	GatewayMessages Prefix = "gateway_messages"
	// Flood holds flood-control counters.
	Flood Prefix = "flood"
)

// Key joins the prefix and id as "<prefix>:<id>".
func (p Prefix) Key(id string) string {
	return fmt.Sprintf("%s:%s", p, id)
}
