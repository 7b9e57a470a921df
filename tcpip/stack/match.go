//go:build !compat_single

package stack

import (
	"log"

	"ministack/logger"
	"ministack/tcpip"
	"ministack/tcpip/buffer"
	"ministack/tcpip/header"
)

// MatchingEndpoint inspects an inbound Ethernet frame and returns the
// endpoint of iface that should process it, or nil when no endpoint
// matches. iface is the interface the frame arrived on; nil means "any
// interface". The frame must hold at least an Ethernet header.
//
// IPv4 frames prefer an exact unicast match, then a subnet test when the
// frame is broadcast-classified, then any multicast destination, and fall
// back to the interface's first endpoint for unclaimed broadcasts. A frame
// is broadcast-classified when the low byte (host order) of its
// destination is 0xff; under non-byte-aligned netmasks this heuristic can
// misclassify, which downstream behavior depends on. Only ARP resolution
// crosses interface boundaries: its target is address-only.
func MatchingEndpoint(iface *NetworkInterface, frame buffer.View) *NetworkEndpoint {
	if len(frame) < header.EthernetMinimumSize {
		panic("stack: MatchingEndpoint frame shorter than an Ethernet header")
	}

	statCount(&RouteStats.Matching)

	eth := header.Ethernet(frame)
	switch t := eth.Type(); t {
	case header.IPv6ProtocolNumber:
		if len(frame) < header.EthernetMinimumSize+header.IPv6MinimumSize {
			logTruncated("IPv6", len(frame))
			return nil
		}
		return matchIPv6(iface, header.IPv6(eth.Payload()))

	case header.ARPProtocolNumber:
		if len(frame) < header.EthernetMinimumSize+header.ARPSize {
			logTruncated("ARP", len(frame))
			return nil
		}
		arp := header.ARP(eth.Payload())
		return FindEndpointOnIP(tcpip.Address(arp.ProtocolAddressTarget()), 3)

	case header.IPv4ProtocolNumber:
		if len(frame) < header.EthernetMinimumSize+header.IPv4MinimumSize {
			logTruncated("IPv4", len(frame))
			return nil
		}
		return matchIPv4(iface, header.IPv4(eth.Payload()))

	default:
		logger.GetInstance().Info(logger.ETH, func() {
			log.Printf("MatchingEndpoint: frame type %#04x not supported", uint32(t))
		})
		return nil
	}
}

func matchIPv6(iface *NetworkInterface, ip header.IPv6) *NetworkEndpoint {
	dst := ip.DestinationAddress()

	for ep := FirstIPv6Endpoint(iface); ep != nil; ep = NextIPv6Endpoint(iface, ep) {
		s := &ep.ipv6.Settings
		if header.CompareIPv6Prefix(s.Address, dst, s.PrefixLength) {
			return ep
		}
	}

	// Link-local name resolution queries are multicast and miss every
	// configured address; hand them to the interface's first IPv6
	// endpoint.
	if dst == header.IPv6LinkLocalNameResolutionAddr {
		return FirstIPv6Endpoint(iface)
	}
	return nil
}

func matchIPv4(iface *NetworkInterface, ip header.IPv4) *NetworkEndpoint {
	target := ip.DestinationAddress()
	source := ip.SourceAddress()

	// ntohl(target) & 0xff == 0xff, i.e. the last wire byte.
	ipBroadcast := target[3] == 0xff

	// For the limited broadcast there is nothing to compare against on
	// the destination side; fall back to the subnet of the sender.
	match := target
	if target == header.IPv4Broadcast {
		match = source
	}

	name := "TCP"
	if ip.TransportProtocol() == header.UDPProtocolNumber {
		name = "UDP"
	}

	for ep := FirstEndpoint(iface); ep != nil; ep = NextEndpoint(iface, ep) {
		if ep.protocol != header.IPv4ProtocolNumber {
			continue
		}
		s := &ep.ipv4.Settings
		switch {
		case s.Address == target:
			// The perfect match.
			return ep
		case ipBroadcast && tcpip.MaskedEqual(s.Address, match, s.NetMask):
			return ep
		case header.IsV4MulticastAddress(target):
			return ep
		}
	}

	if ipBroadcast {
		ep := FirstEndpoint(iface)
		if ep != nil {
			logger.GetInstance().Info(logger.IP, func() {
				log.Printf("MatchingEndpoint: %s broadcast to %s claimed by first endpoint", name, target)
			})
		}
		return ep
	}
	return nil
}

func logTruncated(name string, size int) {
	logger.GetInstance().Info(logger.ETH, func() {
		log.Printf("MatchingEndpoint: %s frame truncated at %d bytes", name, size)
	})
}
