//go:build !compat_single

package stack

import (
	"log"

	"ministack/logger"
	"ministack/tcpip/header"
)

// AddNetworkInterface appends the interface to the registry. Registering
// the same interface twice is a no-op; insertion order is preserved.
// Returns its argument.
func AddNetworkInterface(iface *NetworkInterface) *NetworkInterface {
	if iface == nil {
		panic("stack: AddNetworkInterface with nil interface")
	}

	if networkInterfaces == nil {
		networkInterfaces = iface
		return iface
	}

	it := networkInterfaces
	for {
		if it == iface {
			logger.NOTICE("AddNetworkInterface: already registered:", iface.Name)
			return iface
		}
		if it.next == nil {
			it.next = iface
			return iface
		}
		it = it.next
	}
}

// FirstNetworkInterface returns the first registered interface, or nil
// when none has been registered.
func FirstNetworkInterface() *NetworkInterface {
	return networkInterfaces
}

// NextNetworkInterface returns the interface registered after iface, or
// nil at the end of the chain.
func NextNetworkInterface(iface *NetworkInterface) *NetworkInterface {
	if iface == nil {
		return nil
	}
	return iface.next
}

// AddEndpoint appends the endpoint to the registry and attaches it to
// iface. Registering the same endpoint twice is a no-op and does not move
// it or change its owner. The first endpoint ever attached to an interface
// is recorded on the interface and never reassigned. Returns ep.
func AddEndpoint(iface *NetworkInterface, ep *NetworkEndpoint) *NetworkEndpoint {
	if iface == nil || ep == nil {
		panic("stack: AddEndpoint with nil interface or endpoint")
	}

	for it := networkEndpoints; it != nil; it = it.next {
		if it == ep {
			logger.NOTICE("AddEndpoint: already registered:", ep.configuredAddress().String())
			return ep
		}
	}

	ep.next = nil
	ep.iface = iface
	if iface.endpoint == nil {
		iface.endpoint = ep
	}

	if networkEndpoints == nil {
		networkEndpoints = ep
	} else {
		it := networkEndpoints
		for it.next != nil {
			it = it.next
		}
		it.next = ep
	}

	logger.GetInstance().Info(logger.ROUTE, func() {
		log.Printf("AddEndpoint: %s: MAC %s addr %s", iface.Name, ep.linkAddr, ep.configuredAddress())
	})

	return ep
}

// FirstEndpoint returns the first endpoint bound to iface, in registry
// insertion order. A nil iface means "any interface".
func FirstEndpoint(iface *NetworkInterface) *NetworkEndpoint {
	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if iface == nil || ep.iface == iface {
			return ep
		}
	}
	return nil
}

// NextEndpoint returns the endpoint after ep that is bound to iface, or
// nil when ep is the last one. A nil iface means "any interface".
func NextEndpoint(iface *NetworkInterface, ep *NetworkEndpoint) *NetworkEndpoint {
	if ep == nil {
		return nil
	}
	for e := ep.next; e != nil; e = e.next {
		if iface == nil || e.iface == iface {
			return e
		}
	}
	return nil
}

// FirstIPv6Endpoint returns the first IPv6 endpoint bound to iface. A nil
// iface means "any interface".
func FirstIPv6Endpoint(iface *NetworkInterface) *NetworkEndpoint {
	for ep := networkEndpoints; ep != nil; ep = ep.next {
		if (iface == nil || ep.iface == iface) && ep.protocol == header.IPv6ProtocolNumber {
			return ep
		}
	}
	return nil
}

// NextIPv6Endpoint returns the IPv6 endpoint after ep that is bound to
// iface, or nil when there are no more. A nil iface means "any interface".
func NextIPv6Endpoint(iface *NetworkInterface, ep *NetworkEndpoint) *NetworkEndpoint {
	if ep == nil {
		return nil
	}
	for e := ep.next; e != nil; e = e.next {
		if (iface == nil || e.iface == iface) && e.protocol == header.IPv6ProtocolNumber {
			return e
		}
	}
	return nil
}
