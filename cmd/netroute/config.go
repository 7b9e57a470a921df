package main

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v2"

	"ministack/tcpip"
	"ministack/tcpip/stack"
)

// Config is the YAML topology: which interfaces exist and which
// endpoints sit on them.
type Config struct {
	Interfaces []InterfaceConfig `yaml:"interfaces"`
}

// InterfaceConfig describes one interface. Device names a host tap
// device to attach to; it may be empty for a registry-only dry run.
type InterfaceConfig struct {
	Name      string           `yaml:"name"`
	Device    string           `yaml:"device"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig describes one endpoint. Family selects which of the
// address fields apply: "ipv4" uses address/netmask/gateway, "ipv6"
// uses address/prefix/prefix_length/gateway.
type EndpointConfig struct {
	Family       string   `yaml:"family"`
	Address      string   `yaml:"address"`
	Netmask      string   `yaml:"netmask"`
	Prefix       string   `yaml:"prefix"`
	PrefixLength int      `yaml:"prefix_length"`
	Gateway      string   `yaml:"gateway"`
	DNS          []string `yaml:"dns"`
	MAC          string   `yaml:"mac"`
}

// LoadConfig reads and validates a topology file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.UnmarshalStrict(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(c.Interfaces) == 0 {
		return nil, fmt.Errorf("%s: no interfaces defined", path)
	}
	for _, ifc := range c.Interfaces {
		if ifc.Name == "" {
			return nil, fmt.Errorf("%s: interface without a name", path)
		}
		for _, epc := range ifc.Endpoints {
			switch epc.Family {
			case "ipv4":
			case "ipv6":
				if epc.PrefixLength < 0 || epc.PrefixLength > 128 {
					return nil, fmt.Errorf("%s: endpoint %s on %s: prefix length %d out of range",
						path, epc.Address, ifc.Name, epc.PrefixLength)
				}
			default:
				return nil, fmt.Errorf("%s: endpoint %s on %s: unknown family %q",
					path, epc.Address, ifc.Name, epc.Family)
			}
		}
	}
	return &c, nil
}

// register parses the endpoint's addresses and adds it to the registry.
// The endpoint record is allocated here and lives for the process.
func (epc *EndpointConfig) register(iface *stack.NetworkInterface, mac tcpip.LinkAddress) (*stack.NetworkEndpoint, error) {
	if epc.MAC != "" {
		var err error
		if mac, err = tcpip.ParseMACAddress(epc.MAC); err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", epc.Address, err)
		}
	}

	ep := new(stack.NetworkEndpoint)
	switch epc.Family {
	case "ipv4":
		addr, err := parseIPv4(epc.Address)
		if err != nil {
			return nil, err
		}
		mask, err := parseIPv4(epc.Netmask)
		if err != nil {
			return nil, err
		}
		gateway, err := parseOptionalIPv4(epc.Gateway)
		if err != nil {
			return nil, err
		}
		dns, err := parseDNS(epc.DNS, parseIPv4)
		if err != nil {
			return nil, err
		}
		stack.FillEndpointIPv4(iface, ep, addr, tcpip.AddressMask(mask), gateway, dns, mac)

	case "ipv6":
		addr, err := parseIPv6(epc.Address)
		if err != nil {
			return nil, err
		}
		prefix, err := parseIPv6(epc.Prefix)
		if err != nil {
			return nil, err
		}
		gateway, err := parseOptionalIPv6(epc.Gateway)
		if err != nil {
			return nil, err
		}
		dns, err := parseDNS(epc.DNS, parseIPv6)
		if err != nil {
			return nil, err
		}
		stack.FillEndpointIPv6(iface, ep, addr, prefix, epc.PrefixLength, gateway, dns, mac)
	}
	return ep, nil
}

func parseIPv4(s string) (tcpip.Address, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("bad IPv4 address %q", s)
	}
	return tcpip.Address(ip.To4()), nil
}

func parseIPv6(s string) (tcpip.Address, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() != nil {
		return "", fmt.Errorf("bad IPv6 address %q", s)
	}
	return tcpip.Address(ip.To16()), nil
}

func parseOptionalIPv4(s string) (tcpip.Address, error) {
	if s == "" {
		return "", nil
	}
	return parseIPv4(s)
}

func parseOptionalIPv6(s string) (tcpip.Address, error) {
	if s == "" {
		return "", nil
	}
	return parseIPv6(s)
}

func parseDNS(servers []string, parse func(string) (tcpip.Address, error)) ([]tcpip.Address, error) {
	if len(servers) > stack.MaxDNSServers {
		return nil, fmt.Errorf("at most %d DNS servers per endpoint", stack.MaxDNSServers)
	}
	out := make([]tcpip.Address, 0, len(servers))
	for _, s := range servers {
		addr, err := parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
