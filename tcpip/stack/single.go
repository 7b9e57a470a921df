//go:build compat_single

package stack

import (
	"ministack/tcpip"
	"ministack/tcpip/buffer"
	"ministack/tcpip/header"
)

// This build of the registry assumes exactly one interface carrying
// exactly one endpoint. Registration enforces the assumption with a
// panic, iteration past the single record always ends, and every lookup
// collapses to a direct test. Statistics are not kept in this build.

// AddNetworkInterface records the one interface of the stack. Any add
// after the first panics, including a re-add of the same record.
// Returns its argument.
func AddNetworkInterface(iface *NetworkInterface) *NetworkInterface {
	if iface == nil {
		panic("stack: AddNetworkInterface with nil interface")
	}
	if networkInterfaces != nil {
		panic("stack: this build supports a single interface")
	}
	networkInterfaces = iface
	return iface
}

// FirstNetworkInterface returns the one interface, or nil when none has
// been registered.
func FirstNetworkInterface() *NetworkInterface {
	return networkInterfaces
}

// NextNetworkInterface always returns nil: there is never a second
// interface.
func NextNetworkInterface(iface *NetworkInterface) *NetworkInterface {
	return nil
}

// AddEndpoint records the one endpoint of the stack and attaches it to
// iface. Any add after the first panics, including a re-add of the same
// record. Returns ep.
func AddEndpoint(iface *NetworkInterface, ep *NetworkEndpoint) *NetworkEndpoint {
	if iface == nil || ep == nil {
		panic("stack: AddEndpoint with nil interface or endpoint")
	}
	if networkEndpoints != nil {
		panic("stack: this build supports a single endpoint")
	}

	ep.next = nil
	ep.iface = iface
	iface.endpoint = ep
	networkEndpoints = ep
	return ep
}

// FirstEndpoint returns the one endpoint, or nil when none has been
// registered. iface is ignored.
func FirstEndpoint(iface *NetworkInterface) *NetworkEndpoint {
	return networkEndpoints
}

// NextEndpoint always returns nil: there is never a second endpoint.
func NextEndpoint(iface *NetworkInterface, ep *NetworkEndpoint) *NetworkEndpoint {
	return nil
}

// FirstIPv6Endpoint returns the one endpoint when it is an IPv6
// endpoint, nil otherwise.
func FirstIPv6Endpoint(iface *NetworkInterface) *NetworkEndpoint {
	if ep := networkEndpoints; ep != nil && ep.protocol == header.IPv6ProtocolNumber {
		return ep
	}
	return nil
}

// NextIPv6Endpoint always returns nil.
func NextIPv6Endpoint(iface *NetworkInterface, ep *NetworkEndpoint) *NetworkEndpoint {
	return nil
}

// FindEndpointOnIP tests the one endpoint against the given IPv4
// address. A zero address is a wildcard. where is accepted for signature
// compatibility and ignored.
func FindEndpointOnIP(addr tcpip.Address, where uint32) *NetworkEndpoint {
	ep := networkEndpoints
	if ep == nil || ep.protocol != header.IPv4ProtocolNumber {
		return nil
	}
	if addr.Unspecified() || ep.ipv4.Settings.Address == addr {
		return ep
	}
	return nil
}

// FindEndpointOnIPv6 tests the one endpoint against the given IPv6
// address, accepting prefix matches and the solicited-node form.
func FindEndpointOnIPv6(addr tcpip.Address) *NetworkEndpoint {
	ep := networkEndpoints
	if ep == nil || ep.protocol != header.IPv6ProtocolNumber {
		return nil
	}
	s := &ep.ipv6.Settings
	if header.CompareIPv6Prefix(s.Address, addr, s.PrefixLength) {
		return ep
	}
	if header.IsSolicitedNodeAddr(addr) && addr[13:] == s.Address[13:] {
		return ep
	}
	return nil
}

// FindEndpointOnMAC tests the one endpoint against the given MAC
// address. iface is ignored.
func FindEndpointOnMAC(mac tcpip.LinkAddress, iface *NetworkInterface) *NetworkEndpoint {
	if ep := networkEndpoints; ep != nil && ep.linkAddr == mac {
		return ep
	}
	return nil
}

// FindEndpointOnNetMask tests whether the one endpoint's subnet contains
// the given address. where is accepted for signature compatibility and
// ignored.
func FindEndpointOnNetMask(addr tcpip.Address, where uint32) *NetworkEndpoint {
	return InterfaceEndpointOnNetMask(nil, addr, where)
}

// InterfaceEndpointOnNetMask tests whether the one endpoint's subnet
// contains the given address. iface and where are ignored.
func InterfaceEndpointOnNetMask(iface *NetworkInterface, addr tcpip.Address, where uint32) *NetworkEndpoint {
	ep := networkEndpoints
	if ep == nil || ep.protocol != header.IPv4ProtocolNumber {
		return nil
	}
	s := &ep.ipv4.Settings
	if tcpip.MaskedEqual(s.Address, addr, s.NetMask) {
		return ep
	}
	return nil
}

// FindGateway returns the one endpoint when it belongs to the given
// family and has a gateway configured.
func FindGateway(protocol tcpip.NetworkProtocolNumber) *NetworkEndpoint {
	ep := networkEndpoints
	if ep == nil || ep.protocol != protocol {
		return nil
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
	return nil
}

// MatchingEndpoint returns the one endpoint for every frame: with a
// single endpoint there is nothing to disambiguate. The frame must still
// hold at least an Ethernet header.
func MatchingEndpoint(iface *NetworkInterface, frame buffer.View) *NetworkEndpoint {
	if len(frame) < header.EthernetMinimumSize {
		panic("stack: MatchingEndpoint frame shorter than an Ethernet header")
	}
	return networkEndpoints
}
