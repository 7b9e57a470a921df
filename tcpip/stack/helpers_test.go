package stack

import (
	"ministack/tcpip"
)

// resetRegistry clears the package-level chains between tests. The
// registry is append-only in production; tests rebuild it per case.
func resetRegistry() {
	networkInterfaces = nil
	networkEndpoints = nil
	RouteStats = RoutingStats{}
}

func ip4(a, b, c, d byte) tcpip.Address {
	return tcpip.Address([]byte{a, b, c, d})
}

func mask4(a, b, c, d byte) tcpip.AddressMask {
	return tcpip.AddressMask([]byte{a, b, c, d})
}

func mustMAC(s string) tcpip.LinkAddress {
	mac, err := tcpip.ParseMACAddress(s)
	if err != nil {
		panic(err)
	}
	return mac
}
