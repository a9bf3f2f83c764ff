package domain

// StringSetIface is a set-once, read-many membership test. BlockedCmdSet and
// BlockedIpSet are both published once, before the drain loop starts, and
// never mutated afterwards — see sets.ImmutableSet for the concrete
// go-immutable-radix-backed implementation.
type StringSetIface interface {
	Contains(s string) bool
	Len() int
}

// GeneralSettings is the recognized-key/value store loaded once from the
// general-settings JSON document. Only "central_server_ip" is consumed
// today, but the loader preserves every string-valued key so future
// deployments can add recognized settings without a format change.
type GeneralSettings map[string]string

// Lookup returns the value for key and whether it was present.
func (g GeneralSettings) Lookup(key string) (string, bool) {
	v, ok := g[key]
	return v, ok
}
