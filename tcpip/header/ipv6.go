package header

import (
	"encoding/binary"

	"ministack/tcpip"
)

const (
	versTCFL = 0
	// The length of the payload, i.e. everything after the 40-byte fixed
	// header.
	ipv6PayloadLen = 4
	nextHdr        = 6
	hopLimit       = 7
	v6SrcAddr      = 8
	v6DstAddr      = 24
)

// IPv6Fields contains the fields of an IPv6 packet. It is used to describe
// the fields of a packet that needs to be encoded.
type IPv6Fields struct {
	// TrafficClass is the "traffic class" field of an IPv6 packet.
	TrafficClass uint8

	// FlowLabel is the "flow label" field of an IPv6 packet.
	FlowLabel uint32

	// PayloadLength is the "payload length" field of an IPv6 packet.
	PayloadLength uint16

	// NextHeader is the "next header" field of an IPv6 packet.
	NextHeader uint8

	// HopLimit is the "hop limit" field of an IPv6 packet.
	HopLimit uint8

	// SrcAddr is the "source ip address" of an IPv6 packet.
	SrcAddr tcpip.Address

	// DstAddr is the "destination ip address" of an IPv6 packet.
	DstAddr tcpip.Address
}

// IPv6 represents an IPv6 header stored in a byte array.
type IPv6 []byte

const (
	// IPv6MinimumSize is the minimum size of a valid IPv6 packet.
	IPv6MinimumSize = 40

	// IPv6AddressSize is the size, in bytes, of an IPv6 address.
	IPv6AddressSize = 16

	// IPv6ProtocolNumber is IPv6's network protocol number.
	IPv6ProtocolNumber tcpip.NetworkProtocolNumber = 0x86dd

	// IPv6Version is the version of the ipv6 protocol.
	IPv6Version = 6

	// IPv6MinimumMTU is the minimum MTU required by IPv6, per RFC 2460,
	// section 5.
	IPv6MinimumMTU = 1280

	// IPv6Any is the unspecified IPv6 address.
	IPv6Any tcpip.Address = "\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"

	// IPv6LinkLocalNameResolutionAddr is the LLMNR multicast address,
	// ff02::1:3. Name-resolution queries that miss every configured
	// address still have to reach one endpoint on the interface.
	IPv6LinkLocalNameResolutionAddr tcpip.Address = "\xff\x02\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01\x00\x03"
)

// solicitedNodePrefix is ff02::1:ff00:0/104, the prefix every
// solicited-node multicast address shares.
const solicitedNodePrefix tcpip.Address = "\xff\x02\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01\xff"

// PayloadLength returns the value of the "payload length" field of the
// ipv6 header.
func (b IPv6) PayloadLength() uint16 {
	return binary.BigEndian.Uint16(b[ipv6PayloadLen:])
}

// NextHeader returns the value of the "next header" field of the ipv6
// header.
func (b IPv6) NextHeader() uint8 {
	return b[nextHdr]
}

// HopLimit returns the value of the "hop limit" field of the ipv6 header.
func (b IPv6) HopLimit() uint8 {
	return b[hopLimit]
}

// SourceAddress returns the "source address" field of the ipv6 header.
func (b IPv6) SourceAddress() tcpip.Address {
	return tcpip.Address(b[v6SrcAddr : v6SrcAddr+IPv6AddressSize])
}

// DestinationAddress returns the "destination address" field of the ipv6
// header.
func (b IPv6) DestinationAddress() tcpip.Address {
	return tcpip.Address(b[v6DstAddr : v6DstAddr+IPv6AddressSize])
}

// Payload returns the bytes following the ipv6 fixed header.
func (b IPv6) Payload() []byte {
	return b[IPv6MinimumSize:][:b.PayloadLength()]
}

// Encode encodes all the fields of the ipv6 header.
func (b IPv6) Encode(i *IPv6Fields) {
	b[versTCFL] = (IPv6Version << 4) | (i.TrafficClass >> 4)
	b[versTCFL+1] = (i.TrafficClass << 4) | uint8(i.FlowLabel>>16)
	binary.BigEndian.PutUint16(b[versTCFL+2:], uint16(i.FlowLabel))
	binary.BigEndian.PutUint16(b[ipv6PayloadLen:], i.PayloadLength)
	b[nextHdr] = i.NextHeader
	b[hopLimit] = i.HopLimit
	copy(b[v6SrcAddr:][:IPv6AddressSize], i.SrcAddr)
	copy(b[v6DstAddr:][:IPv6AddressSize], i.DstAddr)
}

// IsValid performs basic validation on the packet.
func (b IPv6) IsValid(pktSize int) bool {
	if len(b) < IPv6MinimumSize {
		return false
	}

	dlen := int(b.PayloadLength())
	if dlen > pktSize-IPv6MinimumSize {
		return false
	}

	return true
}

// IsV6MulticastAddress determines if the provided address is an IPv6
// multicast address (ff00::/8).
func IsV6MulticastAddress(addr tcpip.Address) bool {
	if len(addr) != IPv6AddressSize {
		return false
	}
	return addr[0] == 0xff
}

// SolicitedNodeAddr computes the solicited-node multicast address for the
// given address: ff02::1:ff with the low 24 bits of addr appended, per RFC
// 4291 section 2.7.1.
func SolicitedNodeAddr(addr tcpip.Address) tcpip.Address {
	return solicitedNodePrefix + addr[len(addr)-3:]
}

// IsSolicitedNodeAddr determines whether the address is a solicited-node
// multicast address.
func IsSolicitedNodeAddr(addr tcpip.Address) bool {
	return len(addr) == IPv6AddressSize && tcpip.Address(addr[:13]) == solicitedNodePrefix
}

// CompareIPv6Prefix returns true when a and b agree on their first
// prefixBits bits. Both addresses must be 16 bytes.
func CompareIPv6Prefix(a, b tcpip.Address, prefixBits int) bool {
	if len(a) != IPv6AddressSize || len(b) != IPv6AddressSize {
		return false
	}
	if prefixBits > 8*IPv6AddressSize {
		prefixBits = 8 * IPv6AddressSize
	}

	whole := prefixBits / 8
	if tcpip.Address(a[:whole]) != tcpip.Address(b[:whole]) {
		return false
	}
	if rest := prefixBits % 8; rest != 0 {
		mask := byte(0xff << (8 - rest))
		if (a[whole]^b[whole])&mask != 0 {
			return false
		}
	}
	return true
}
