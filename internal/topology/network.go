package topology

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/imamik/k3smox/internal/config"
)

// maxIPv6Digits is the longest decimal host that still fits one IPv6 segment.
const maxIPv6Digits = 4

// NetworkIndex maps a role-relative position to a flat index in the shared
// address block. Masters take [0, masterCount) and workers follow.
//
// This assumes one contiguous block for both roles; independently sized
// pools per role would need a different mapping.
func NetworkIndex(role Role, roleIndex, masterCount int) int {
	if role == RoleWorker {
		return masterCount + roleIndex
	}
	return roleIndex
}

// IPv4 formats prefix + (hostBase + networkIndex). The prefix is one to three
// dotted octets ending in "."; the host fills the remaining octets and must
// not be the network or broadcast address of that range.
func IPv4(prefix string, hostBase, networkIndex int) (string, error) {
	if !strings.HasSuffix(prefix, ".") {
		return "", config.Invalid("network.ipv4_prefix", "%q must end with '.'", prefix)
	}
	parts := strings.Split(strings.TrimSuffix(prefix, "."), ".")
	if len(parts) < 1 || len(parts) > 3 {
		return "", config.Invalid("network.ipv4_prefix", "%q must have one to three octets", prefix)
	}

	var octets [4]byte
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return "", config.Invalid("network.ipv4_prefix", "%q has an invalid octet %q", prefix, p)
		}
		octets[i] = byte(v)
	}

	host := hostBase + networkIndex
	free := 4 - len(parts)
	maxHost := 1<<(8*free) - 2
	if host < 1 || host > maxHost {
		return "", config.Invalid("network.host_base", "host %d is outside 1..%d for prefix %q", host, maxHost, prefix)
	}

	for i := 3; i >= len(parts); i-- {
		octets[i] = byte(host & 0xff)
		host >>= 8
	}

	return netip.AddrFrom4(octets).String(), nil
}

// IPv6 formats prefix + (hostBase + networkIndex), writing the host as the
// same decimal digits used for IPv4 into the last segment. An empty prefix
// disables IPv6 and yields an empty address.
func IPv6(prefix string, hostBase, networkIndex int) (string, error) {
	if prefix == "" {
		return "", nil
	}

	host := hostBase + networkIndex
	digits := strconv.Itoa(host)
	if host < 1 || len(digits) > maxIPv6Digits {
		return "", config.Invalid("network.host_base", "host %d does not fit an IPv6 segment", host)
	}

	addr, err := netip.ParseAddr(prefix + digits)
	if err != nil || !addr.Is6() || addr.Is4In6() {
		return "", config.Invalid("network.ipv6_prefix", "%q with host %s is not a valid IPv6 address", prefix, digits)
	}

	return addr.String(), nil
}
