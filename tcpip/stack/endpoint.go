// Package stack holds the routing registry of the stack: which network
// interfaces exist, which IP endpoints are bound to them, and which
// endpoint an inbound frame or an address query resolves to.
//
// The registry is populated during start-up, strictly before the IP task
// starts consuming frames, and is read-only afterwards. Storage for every
// interface and endpoint record is supplied by the caller and must outlive
// the process; the registry links the records together and never frees
// them. Because nothing mutates after start-up, concurrent lookups need no
// locking.
//
// Two interchangeable implementations of the registry exist. The default
// supports any number of interfaces and endpoints; building with the
// "compat_single" tag selects a reduced variant that assumes exactly one
// interface with exactly one endpoint and turns every lookup into a direct
// test. Both expose the same signatures.
package stack

import (
	"ministack/tcpip"
	"ministack/tcpip/header"
)

// MaxDNSServers is the number of DNS server slots per endpoint.
const MaxDNSServers = 2

// NetworkInterface is the identity record for a network attachment point.
// Callers allocate one per device and keep it alive forever.
type NetworkInterface struct {
	// Name identifies the interface in diagnostics, e.g. "eth0".
	Name string

	// Driver is driver-owned state. The routing code never looks at it.
	Driver any

	// endpoint is the first endpoint ever attached to this interface.
	// Set once by AddEndpoint, never reassigned.
	endpoint *NetworkEndpoint

	next *NetworkInterface
}

// Endpoint returns the first endpoint attached to the interface, or nil
// when no endpoint has been attached yet.
func (n *NetworkInterface) Endpoint() *NetworkEndpoint {
	return n.endpoint
}

// IPv4Settings is one IPv4 addressing configuration.
type IPv4Settings struct {
	// Address is the unicast address of the endpoint.
	Address tcpip.Address

	// NetMask is the subnet mask of the endpoint.
	NetMask tcpip.AddressMask

	// Gateway is the address of a router on the LAN, or zero when the
	// endpoint has no gateway.
	Gateway tcpip.Address

	// Broadcast is the directed broadcast address, derived at fill time
	// as Address | ^NetMask.
	Broadcast tcpip.Address

	// DNSServers holds the configured DNS servers. Unused slots are
	// empty.
	DNSServers [MaxDNSServers]tcpip.Address
}

// IPv4Config pairs the live settings of an endpoint with the defaults
// captured at fill time. Dynamic address assignment rewrites Settings
// only; Defaults are what the endpoint falls back to when no lease was
// ever obtained.
type IPv4Config struct {
	Settings IPv4Settings
	Defaults IPv4Settings
}

// IPv6Settings is one IPv6 addressing configuration.
type IPv6Settings struct {
	// Address is the unicast address of the endpoint.
	Address tcpip.Address

	// Prefix is the network prefix, PrefixLength bits of which are
	// significant.
	Prefix tcpip.Address

	// PrefixLength is the number of leading bits of Prefix that define
	// the network portion.
	PrefixLength int

	// Gateway is the address of a router on the link, or unspecified.
	Gateway tcpip.Address

	// DNSServers holds the configured DNS servers. Unused slots are
	// empty.
	DNSServers [MaxDNSServers]tcpip.Address
}

// IPv6Config pairs live settings with fill-time defaults, as IPv4Config
// does.
type IPv6Config struct {
	Settings IPv6Settings
	Defaults IPv6Settings
}

// NetworkEndpoint is one IP addressing configuration bound to one
// interface. Exactly one of the two family configurations is populated,
// selected by the fill call; the accessors enforce the tag. Callers
// allocate endpoint records and keep them alive forever.
type NetworkEndpoint struct {
	iface    *NetworkInterface
	linkAddr tcpip.LinkAddress

	// protocol is the family tag: IPv4ProtocolNumber, IPv6ProtocolNumber
	// or zero before any fill.
	protocol tcpip.NetworkProtocolNumber
	ipv4     IPv4Config
	ipv6     IPv6Config

	next *NetworkEndpoint
}

// Interface returns the interface this endpoint is attached to. It is nil
// only before the endpoint has been added to the registry.
func (e *NetworkEndpoint) Interface() *NetworkInterface {
	return e.iface
}

// LinkAddress returns the MAC address of the endpoint.
func (e *NetworkEndpoint) LinkAddress() tcpip.LinkAddress {
	return e.linkAddr
}

// Protocol returns the family tag of the endpoint.
func (e *NetworkEndpoint) Protocol() tcpip.NetworkProtocolNumber {
	return e.protocol
}

// IPv4 returns the IPv4 configuration. ok is false when the endpoint is
// not an IPv4 endpoint.
func (e *NetworkEndpoint) IPv4() (c *IPv4Config, ok bool) {
	if e.protocol != header.IPv4ProtocolNumber {
		return nil, false
	}
	return &e.ipv4, true
}

// IPv6 returns the IPv6 configuration. ok is false when the endpoint is
// not an IPv6 endpoint.
func (e *NetworkEndpoint) IPv6() (c *IPv6Config, ok bool) {
	if e.protocol != header.IPv6ProtocolNumber {
		return nil, false
	}
	return &e.ipv6, true
}

// configuredAddress is the address shown in registration diagnostics.
func (e *NetworkEndpoint) configuredAddress() tcpip.Address {
	switch e.protocol {
	case header.IPv6ProtocolNumber:
		return e.ipv6.Defaults.Address
	default:
		return e.ipv4.Defaults.Address
	}
}

// The process-wide registry: the chain of all interfaces and the chain of
// all endpoints, in insertion order.
var (
	networkInterfaces *NetworkInterface
	networkEndpoints  *NetworkEndpoint
)

// FillEndpointIPv4 configures ep as an IPv4 endpoint of iface and adds it
// to the registry. The endpoint storage is zeroed first; the configuration
// is copied into both the live settings and the defaults, and the directed
// broadcast address is derived from the address and mask. The memory
// behind ep is dedicated to the endpoint from here on and must never be
// freed or reused.
func FillEndpointIPv4(iface *NetworkInterface, ep *NetworkEndpoint, addr tcpip.Address, mask tcpip.AddressMask, gateway tcpip.Address, dns []tcpip.Address, mac tcpip.LinkAddress) {
	if iface == nil || ep == nil {
		panic("stack: FillEndpointIPv4 with nil interface or endpoint")
	}
	if len(addr) != header.IPv4AddressSize || len(mask) != header.IPv4AddressSize {
		panic("stack: FillEndpointIPv4 needs 4-byte address and mask")
	}
	if len(gateway) != 0 && len(gateway) != header.IPv4AddressSize {
		panic("stack: FillEndpointIPv4 gateway must be empty or 4 bytes")
	}

	*ep = NetworkEndpoint{}

	s := &ep.ipv4.Settings
	s.Address = addr
	s.NetMask = mask
	s.Gateway = gateway

	broadcast := make([]byte, header.IPv4AddressSize)
	for i := 0; i < header.IPv4AddressSize; i++ {
		broadcast[i] = addr[i] | ^mask[i]
	}
	s.Broadcast = tcpip.Address(broadcast)

	for i := 0; i < len(dns) && i < MaxDNSServers; i++ {
		s.DNSServers[i] = dns[i]
	}

	ep.ipv4.Defaults = *s
	ep.protocol = header.IPv4ProtocolNumber
	ep.linkAddr = mac

	AddEndpoint(iface, ep)
}

// FillEndpointIPv6 configures ep as an IPv6 endpoint of iface and adds it
// to the registry. Semantics mirror FillEndpointIPv4; the prefix length is
// recorded as given. The memory behind ep must never be freed or reused.
func FillEndpointIPv6(iface *NetworkInterface, ep *NetworkEndpoint, addr tcpip.Address, prefix tcpip.Address, prefixLength int, gateway tcpip.Address, dns []tcpip.Address, mac tcpip.LinkAddress) {
	if iface == nil || ep == nil {
		panic("stack: FillEndpointIPv6 with nil interface or endpoint")
	}
	if len(addr) != header.IPv6AddressSize {
		panic("stack: FillEndpointIPv6 needs a 16-byte address")
	}
	if prefixLength < 0 || prefixLength > 8*header.IPv6AddressSize {
		panic("stack: FillEndpointIPv6 prefix length out of range")
	}

	*ep = NetworkEndpoint{}

	s := &ep.ipv6.Settings
	s.Address = addr
	s.Prefix = prefix
	s.PrefixLength = prefixLength
	s.Gateway = gateway

	for i := 0; i < len(dns) && i < MaxDNSServers; i++ {
		s.DNSServers[i] = dns[i]
	}

	ep.ipv6.Defaults = *s
	ep.protocol = header.IPv6ProtocolNumber
	ep.linkAddr = mac

	AddEndpoint(iface, ep)
}
