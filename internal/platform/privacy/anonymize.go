// Package privacy reduces client identifiers to values that are still useful
// in logs but no longer point at a single host.
package privacy

import "net/netip"

const (
	v4Prefix = 24
	v6Prefix = 48
)

// AnonymizeIP masks ip to its /24 (IPv4) or /48 (IPv6) network. IPv4-mapped
// IPv6 addresses are treated as IPv4. Empty input gives "unknown" and
// unparseable input gives "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := v6Prefix
	if addr.Is4() {
		bits = v4Prefix
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
