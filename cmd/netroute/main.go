// Command netroute loads an interface topology from YAML, registers it
// with the routing registry and, when tap devices are configured,
// resolves live frames to endpoints and prints what it sees.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"ministack/logger"
	"ministack/tcpip"
	"ministack/tcpip/buffer"
	"ministack/tcpip/header"
	"ministack/tcpip/link/tuntap"
	"ministack/tcpip/stack"
)

const mtu = 1500

func main() {
	configPath := flag.String("c", "topology.yaml", "topology file")
	verbose := flag.Bool("v", false, "enable all diagnostic output")
	dryRun := flag.Bool("n", false, "register and print the table, do not open devices")
	flag.Parse()

	if *verbose {
		logger.SetFlags(logger.ETH | logger.ARP | logger.IP | logger.ROUTE)
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	devices, err := buildTopology(config, *dryRun)
	if err != nil {
		log.Fatal(err)
	}

	printTable()

	if *dryRun || len(devices) == 0 {
		return
	}
	for iface, dev := range devices {
		go readLoop(iface, dev)
	}
	select {}
}

// buildTopology registers every interface and endpoint of the config.
// Unless dryRun is set it also opens the configured tap devices, keyed
// by the owning interface.
func buildTopology(config *Config, dryRun bool) (map[*stack.NetworkInterface]*tuntap.Device, error) {
	devices := make(map[*stack.NetworkInterface]*tuntap.Device)

	for _, ifc := range config.Interfaces {
		iface := stack.AddNetworkInterface(&stack.NetworkInterface{Name: ifc.Name})

		var deviceMAC tcpip.LinkAddress
		if ifc.Device != "" && !dryRun {
			dev, err := tuntap.Open(ifc.Device, tuntap.Tap)
			if err != nil {
				return nil, err
			}
			if err := dev.SetUp(); err != nil {
				return nil, err
			}
			if deviceMAC, err = dev.LinkAddress(); err != nil {
				return nil, err
			}
			iface.Driver = dev
			devices[iface] = dev
		}

		for i := range ifc.Endpoints {
			if _, err := ifc.Endpoints[i].register(iface, deviceMAC); err != nil {
				return nil, fmt.Errorf("interface %s: %w", ifc.Name, err)
			}
		}
	}
	return devices, nil
}

// printTable walks the registry the way the lookups do and prints one
// line per endpoint.
func printTable() {
	w := os.Stdout
	for iface := stack.FirstNetworkInterface(); iface != nil; iface = stack.NextNetworkInterface(iface) {
		fmt.Fprintf(w, "%s:\n", iface.Name)
		for ep := stack.FirstEndpoint(iface); ep != nil; ep = stack.NextEndpoint(iface, ep) {
			if c, ok := ep.IPv4(); ok {
				s := c.Settings
				fmt.Fprintf(w, "  %s/%d  broadcast %s  gw %s  mac %s\n",
					s.Address, s.NetMask.Prefix(), s.Broadcast, gatewayOrDash(s.Gateway), ep.LinkAddress())
				continue
			}
			if c, ok := ep.IPv6(); ok {
				s := c.Settings
				fmt.Fprintf(w, "  %s/%d  gw %s  mac %s\n",
					s.Address, s.PrefixLength, gatewayOrDash(s.Gateway), ep.LinkAddress())
			}
		}
	}
}

func gatewayOrDash(gw tcpip.Address) string {
	if gw.Unspecified() {
		return "-"
	}
	return gw.String()
}

// readLoop resolves every frame the device delivers and reports the
// outcome. Frames too short to carry an Ethernet header are dropped
// before resolution, which panics on them.
func readLoop(iface *stack.NetworkInterface, dev *tuntap.Device) {
	frame := buffer.NewView(mtu)
	for {
		n, err := dev.Read(frame)
		if err != nil {
			log.Printf("%s: read: %v", dev.Name, err)
			return
		}
		if n < header.EthernetMinimumSize {
			continue
		}

		ep := stack.MatchingEndpoint(iface, frame[:n])
		if ep == nil {
			logger.GetInstance().Info(logger.ETH, func() {
				log.Printf("%s: %d bytes, no endpoint", iface.Name, n)
			})
			continue
		}
		log.Printf("%s: %s for %s", iface.Name, describeFrame(frame[:n]), ep.LinkAddress())
	}
}

// describeFrame names the frame for the match log, down to the ports
// for UDP and TCP.
func describeFrame(frame buffer.View) string {
	eth := header.Ethernet(frame)
	switch eth.Type() {
	case header.ARPProtocolNumber:
		arp := header.ARP(eth.Payload())
		return fmt.Sprintf("ARP op %d target %s", arp.Op(), tcpip.Address(arp.ProtocolAddressTarget()))

	case header.IPv4ProtocolNumber:
		ip := header.IPv4(eth.Payload())
		from, to := ip.SourceAddress(), ip.DestinationAddress()
		if ip.IsValid(len(eth.Payload())) {
			switch p := ip.Payload(); ip.TransportProtocol() {
			case header.UDPProtocolNumber:
				if len(p) >= header.UDPMinimumSize {
					udp := header.UDP(p)
					return fmt.Sprintf("UDP %s:%d > %s:%d", from, udp.SourcePort(), to, udp.DestinationPort())
				}
			case header.TCPProtocolNumber:
				if len(p) >= header.TCPMinimumSize {
					tcp := header.TCP(p)
					return fmt.Sprintf("TCP %s:%d > %s:%d", from, tcp.SourcePort(), to, tcp.DestinationPort())
				}
			}
		}
		return fmt.Sprintf("IPv4 proto %d %s > %s", ip.Protocol(), from, to)

	case header.IPv6ProtocolNumber:
		ip := header.IPv6(eth.Payload())
		return fmt.Sprintf("IPv6 %s > %s", ip.SourceAddress(), ip.DestinationAddress())

	default:
		return fmt.Sprintf("frame type %#04x", uint32(eth.Type()))
	}
}
