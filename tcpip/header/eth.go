package header

import (
	"encoding/binary"

	"ministack/tcpip"
)

const (
	dstMAC  = 0
	srcMAC  = 6
	ethType = 12
)

// EthernetFields contains the fields of an Ethernet frame header. It is
// used to describe the fields of a frame that needs to be encoded.
type EthernetFields struct {
	// SrcAddr is the "MAC source" field of the frame.
	SrcAddr tcpip.LinkAddress

	// DstAddr is the "MAC destination" field of the frame.
	DstAddr tcpip.LinkAddress

	// Type is the "EtherType" field of the frame, e.g. IPv4ProtocolNumber
	// or ARPProtocolNumber.
	Type tcpip.NetworkProtocolNumber
}

// Ethernet represents an Ethernet frame header stored in a byte array.
type Ethernet []byte

const (
	// EthernetMinimumSize is the minimum size of a valid Ethernet header.
	EthernetMinimumSize = 14

	// EthernetAddressSize is the size, in bytes, of an Ethernet address.
	EthernetAddressSize = 6
)

// SourceAddress returns the "MAC source" field of the frame header.
func (b Ethernet) SourceAddress() tcpip.LinkAddress {
	return tcpip.LinkAddress(b[srcMAC:][:EthernetAddressSize])
}

// DestinationAddress returns the "MAC destination" field of the frame
// header.
func (b Ethernet) DestinationAddress() tcpip.LinkAddress {
	return tcpip.LinkAddress(b[dstMAC:][:EthernetAddressSize])
}

// Type returns the "EtherType" field of the frame header.
func (b Ethernet) Type() tcpip.NetworkProtocolNumber {
	return tcpip.NetworkProtocolNumber(binary.BigEndian.Uint16(b[ethType:]))
}

// Payload returns the bytes following the frame header.
func (b Ethernet) Payload() []byte {
	return b[EthernetMinimumSize:]
}

// Encode encodes all the fields of the Ethernet frame header. The
// destination must already hold at least EthernetMinimumSize bytes.
func (b Ethernet) Encode(e *EthernetFields) {
	binary.BigEndian.PutUint16(b[ethType:], uint16(e.Type))
	copy(b[srcMAC:][:EthernetAddressSize], e.SrcAddr)
	copy(b[dstMAC:][:EthernetAddressSize], e.DstAddr)
}
