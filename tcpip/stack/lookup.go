//go:build !compat_single

package stack

import (
	"log"

	"ministack/logger"
	"ministack/tcpip"
	"ministack/tcpip/header"
)

// FindEndpointOnIP returns the endpoint configured with the given IPv4
// address. A zero (or empty) address is a wildcard matching the first IPv4
// endpoint in registry order. where tags the call site for statistics.
func FindEndpointOnIP(addr tcpip.Address, where uint32) *NetworkEndpoint {
	statCount(&RouteStats.OnIP)
	if where < RouteStatsLocations {
		statCount(&RouteStats.IPLocations[where])
	}

	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if ep.protocol != header.IPv4ProtocolNumber {
			continue
		}
		if addr.Unspecified() || ep.ipv4.Settings.Address == addr {
			return ep
		}
	}
	return nil
}

// FindEndpointOnIPv6 returns the endpoint that handles the given IPv6
// address: either the address matches the endpoint's address under the
// endpoint's own prefix length, or it is the solicited-node multicast
// form whose low 24 bits equal the endpoint's.
func FindEndpointOnIPv6(addr tcpip.Address) *NetworkEndpoint {
	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if ep.protocol != header.IPv6ProtocolNumber {
			continue
		}
		s := &ep.ipv6.Settings
		if header.CompareIPv6Prefix(s.Address, addr, s.PrefixLength) {
			return ep
		}
		if header.IsSolicitedNodeAddr(addr) && addr[13:] == s.Address[13:] {
			return ep
		}
	}
	return nil
}

// FindEndpointOnMAC returns the endpoint with the given MAC address,
// optionally restricted to one interface (nil means "any interface").
func FindEndpointOnMAC(mac tcpip.LinkAddress, iface *NetworkInterface) *NetworkEndpoint {
	statCount(&RouteStats.OnMAC)

	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if (iface == nil || ep.iface == iface) && ep.linkAddr == mac {
			return ep
		}
	}
	return nil
}

// FindEndpointOnNetMask returns the first IPv4 endpoint whose subnet
// contains the given address, searching every interface. where tags the
// call site for statistics.
func FindEndpointOnNetMask(addr tcpip.Address, where uint32) *NetworkEndpoint {
	return InterfaceEndpointOnNetMask(nil, addr, where)
}

// InterfaceEndpointOnNetMask returns the first IPv4 endpoint of iface
// whose subnet contains the given address; ties among overlapping subnets
// go to the endpoint registered first. A nil iface means "any interface".
func InterfaceEndpointOnNetMask(iface *NetworkInterface, addr tcpip.Address, where uint32) *NetworkEndpoint {
	statCount(&RouteStats.OnNetMask)
	if where < RouteStatsLocations {
		statCount(&RouteStats.MaskLocations[where])
	}

	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if iface != nil && ep.iface != iface {
			continue
		}
		if ep.protocol != header.IPv4ProtocolNumber {
			continue
		}
		s := &ep.ipv4.Settings
		if tcpip.MaskedEqual(s.Address, addr, s.NetMask) {
			return ep
		}
	}

	// Call sites 1 and 2 probe on their hot path and expect misses.
	if where != 1 && where != 2 {
		logger.GetInstance().Info(logger.ROUTE, func() {
			log.Printf("FindEndpointOnNetMask[%d]: no match for %s", where, addr)
		})
	}
	return nil
}

// FindGateway returns the first endpoint of the given family that has a
// gateway configured, or nil when no endpoint leads to a gateway.
func FindGateway(protocol tcpip.NetworkProtocolNumber) *NetworkEndpoint {
	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if ep.protocol != protocol {
			continue
		}
		switch protocol {
		case header.IPv4ProtocolNumber:
			if !ep.ipv4.Settings.Gateway.Unspecified() {
				return ep
			}
		case header.IPv6ProtocolNumber:
			if !ep.ipv6.Settings.Gateway.Unspecified() {
				return ep
			}
		}
	}
	return nil
}
