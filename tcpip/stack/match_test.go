//go:build !compat_single

package stack

import (
	"testing"

	"ministack/tcpip"
	"ministack/tcpip/buffer"
	"ministack/tcpip/header"
)

func ethFrame(etherType tcpip.NetworkProtocolNumber, payload []byte) buffer.View {
	frame := make([]byte, header.EthernetMinimumSize+len(payload))
	header.Ethernet(frame).Encode(&header.EthernetFields{
		SrcAddr: mustMAC("02:ee:00:00:00:01"),
		DstAddr: mustMAC("ff:ff:ff:ff:ff:ff"),
		Type:    etherType,
	})
	copy(frame[header.EthernetMinimumSize:], payload)
	return buffer.View(frame)
}

func ipv4Frame(src, dst tcpip.Address, transport tcpip.TransportProtocolNumber) buffer.View {
	p := make([]byte, header.IPv4MinimumSize)
	header.IPv4(p).Encode(&header.IPv4Fields{
		IHL:         header.IPv4MinimumSize,
		TotalLength: header.IPv4MinimumSize,
		TTL:         64,
		Protocol:    uint8(transport),
		SrcAddr:     src,
		DstAddr:     dst,
	})
	return ethFrame(header.IPv4ProtocolNumber, p)
}

func arpFrame(target tcpip.Address) buffer.View {
	p := make([]byte, header.ARPSize)
	a := header.ARP(p)
	a.SetIPv4OverEthernet()
	a.SetOp(header.ARPRequest)
	copy(a.ProtocolAddressTarget(), target)
	return ethFrame(header.ARPProtocolNumber, p)
}

func ipv6Frame(src, dst tcpip.Address) buffer.View {
	p := make([]byte, header.IPv6MinimumSize)
	header.IPv6(p).Encode(&header.IPv6Fields{
		NextHeader: uint8(header.UDPProtocolNumber),
		HopLimit:   64,
		SrcAddr:    src,
		DstAddr:    dst,
	})
	return ethFrame(header.IPv6ProtocolNumber, p)
}

func TestMatchingExactUnicast(t *testing.T) {
	eth0, _, ep10, ep172, _ := twoSubnetSetup(t)

	frame := ipv4Frame(ip4(10, 0, 0, 77), ip4(10, 0, 0, 10), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep10 {
		t.Fatalf("unicast to 10.0.0.10 matched %v, want ep10", got)
	}

	frame = ipv4Frame(ip4(172, 16, 0, 77), ip4(172, 16, 0, 10), header.TCPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep172 {
		t.Fatalf("unicast to 172.16.0.10 matched %v, want ep172", got)
	}
}

func TestMatchingUnicastStaysOnInterface(t *testing.T) {
	_, eth1, _, _, _ := twoSubnetSetup(t)

	// A unicast for an eth0 address arriving on eth1 matches nothing.
	frame := ipv4Frame(ip4(10, 0, 0, 77), ip4(10, 0, 0, 10), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth1, frame); got != nil {
		t.Fatalf("cross-interface unicast matched %v, want nil", got)
	}
}

func TestMatchingARPCrossesInterfaces(t *testing.T) {
	_, eth1, ep10, _, ep192 := twoSubnetSetup(t)

	// ARP resolution considers every interface, regardless of arrival.
	if got := MatchingEndpoint(eth1, arpFrame(ip4(10, 0, 0, 10))); got != ep10 {
		t.Fatalf("ARP for 10.0.0.10 on eth1 matched %v, want ep10", got)
	}
	if got := MatchingEndpoint(eth1, arpFrame(ip4(192, 168, 1, 10))); got != ep192 {
		t.Fatalf("ARP for 192.168.1.10 matched %v, want ep192", got)
	}
	if got := MatchingEndpoint(eth1, arpFrame(ip4(203, 0, 113, 5))); got != nil {
		t.Fatalf("ARP for an unknown address matched %v, want nil", got)
	}
}

func TestMatchingLimitedBroadcastUsesSourceSubnet(t *testing.T) {
	eth0, _, ep10, ep172, _ := twoSubnetSetup(t)

	// 255.255.255.255 carries no subnet of its own; the sender's does.
	frame := ipv4Frame(ip4(172, 16, 33, 1), header.IPv4Broadcast, header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep172 {
		t.Fatalf("limited broadcast from 172.16.33.1 matched %v, want ep172", got)
	}

	frame = ipv4Frame(ip4(10, 0, 0, 200), header.IPv4Broadcast, header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep10 {
		t.Fatalf("limited broadcast from 10.0.0.200 matched %v, want ep10", got)
	}
}

func TestMatchingDirectedBroadcast(t *testing.T) {
	eth0, _, ep10, _, _ := twoSubnetSetup(t)

	// 10.0.0.255 belongs to the 10.0.0.0/24 endpoint alone.
	frame := ipv4Frame(ip4(10, 0, 0, 200), ip4(10, 0, 0, 255), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep10 {
		t.Fatalf("directed broadcast matched %v, want ep10", got)
	}
}

func TestMatchingBroadcastHeuristicNonAlignedMask(t *testing.T) {
	resetRegistry()

	eth0 := AddNetworkInterface(&NetworkInterface{Name: "eth0"})

	// 10.0.0.10/25: the subnet's real directed broadcast is 10.0.0.127,
	// and 10.0.0.255 is a plain host of the neighboring 10.0.0.128/25.
	// Classification goes by the low byte of the destination alone, so
	// the two cases land the other way around. Inherited behavior that
	// downstream code depends on; do not straighten it out.
	var ep NetworkEndpoint
	FillEndpointIPv4(eth0, &ep, ip4(10, 0, 0, 10), mask4(255, 255, 255, 128), "", nil, mustMAC("02:00:00:00:00:01"))

	// Low byte 0xff: broadcast-classified, in nobody's subnet, claimed
	// by the first endpoint.
	frame := ipv4Frame(ip4(10, 0, 0, 200), ip4(10, 0, 0, 255), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != &ep {
		t.Fatalf("10.0.0.255 under /25 matched %v, want the first endpoint", got)
	}

	// Low byte 0x7f: the subnet's own directed broadcast is treated as
	// an unknown unicast.
	frame = ipv4Frame(ip4(10, 0, 0, 20), ip4(10, 0, 0, 127), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != nil {
		t.Fatalf("10.0.0.127 under /25 matched %v, want nil", got)
	}
}

func TestMatchingMulticast(t *testing.T) {
	eth0, _, ep10, _, _ := twoSubnetSetup(t)

	// mDNS. Any endpoint may claim a multicast; the first one does.
	frame := ipv4Frame(ip4(10, 0, 0, 200), ip4(224, 0, 0, 251), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep10 {
		t.Fatalf("multicast matched %v, want the first endpoint", got)
	}
}

func TestMatchingBroadcastFallsBackToFirstEndpoint(t *testing.T) {
	eth0, _, ep10, _, _ := twoSubnetSetup(t)

	// Broadcast-classified but in nobody's subnet: the interface's first
	// endpoint takes it.
	frame := ipv4Frame(ip4(203, 0, 113, 1), ip4(203, 0, 113, 255), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != ep10 {
		t.Fatalf("unclaimed broadcast matched %v, want the first endpoint", got)
	}
}

func TestMatchingUnknownUnicast(t *testing.T) {
	eth0, _, _, _, _ := twoSubnetSetup(t)

	frame := ipv4Frame(ip4(10, 0, 0, 77), ip4(203, 0, 113, 5), header.UDPProtocolNumber)
	if got := MatchingEndpoint(eth0, frame); got != nil {
		t.Fatalf("unknown unicast matched %v, want nil", got)
	}
}

func TestMatchingIPv6(t *testing.T) {
	resetRegistry()

	eth0 := AddNetworkInterface(&NetworkInterface{Name: "eth0"})

	linkLocal := tcpip.Address("\xfe\x80\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x12\x34\x56\x78")
	global := tcpip.Address("\x20\x01\x0d\xb8\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01")
	prefix := tcpip.Address("\xfe\x80\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")

	var ep NetworkEndpoint
	FillEndpointIPv6(eth0, &ep, linkLocal, prefix, 64, "", nil, mustMAC("02:00:00:00:00:01"))

	src := tcpip.Address("\xfe\x80\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\xaa")

	if got := MatchingEndpoint(eth0, ipv6Frame(src, linkLocal)); got != &ep {
		t.Fatalf("IPv6 frame to the configured address matched %v, want the endpoint", got)
	}
	if got := MatchingEndpoint(eth0, ipv6Frame(src, global)); got != nil {
		t.Fatalf("IPv6 frame outside the prefix matched %v, want nil", got)
	}

	// Name-resolution multicast falls back to the first IPv6 endpoint.
	llmnr := header.IPv6LinkLocalNameResolutionAddr
	if got := MatchingEndpoint(eth0, ipv6Frame(src, llmnr)); got != &ep {
		t.Fatalf("LLMNR frame matched %v, want the endpoint", got)
	}
}

func TestMatchingUnsupportedFrameType(t *testing.T) {
	eth0, _, _, _, _ := twoSubnetSetup(t)

	frame := ethFrame(0x9999, nil)
	if got := MatchingEndpoint(eth0, frame); got != nil {
		t.Fatalf("unsupported frame type matched %v, want nil", got)
	}
}

func TestMatchingTruncatedFrames(t *testing.T) {
	eth0, _, _, _, _ := twoSubnetSetup(t)

	tests := []struct {
		name  string
		frame buffer.View
	}{
		{"IPv4", ipv4Frame(ip4(10, 0, 0, 77), ip4(10, 0, 0, 10), header.UDPProtocolNumber)[:header.EthernetMinimumSize+8]},
		{"ARP", arpFrame(ip4(10, 0, 0, 10))[:header.EthernetMinimumSize+10]},
		{"IPv6", ipv6Frame(header.IPv6Any, header.IPv6Any)[:header.EthernetMinimumSize+20]},
	}
	for _, test := range tests {
		if got := MatchingEndpoint(eth0, test.frame); got != nil {
			t.Errorf("truncated %s frame matched %v, want nil", test.name, got)
		}
	}
}

func TestMatchingPanicsOnShortFrame(t *testing.T) {
	eth0, _, _, _, _ := twoSubnetSetup(t)

	defer func() {
		if recover() == nil {
			t.Fatal("frame shorter than an Ethernet header did not panic")
		}
	}()
	MatchingEndpoint(eth0, buffer.View{0x00, 0x01, 0x02})
}
