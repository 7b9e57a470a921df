// Package tuntap opens Linux tun/tap devices and hands their frames to
// the stack. A tap device carries full Ethernet frames, which is what
// the routing code expects; tun is provided for IP-level experiments.
package tuntap

import (
	"errors"
	"fmt"
	"net"
	"os/exec"

	"golang.org/x/sys/unix"

	"ministack/tcpip"
)

// Mode selects the layer the device operates at.
type Mode int

const (
	// Tun devices carry IP packets.
	Tun Mode = iota + 1

	// Tap devices carry Ethernet frames.
	Tap
)

// ErrDeviceMode is returned when Open is given a Mode it does not know.
var ErrDeviceMode = errors.New("tuntap: unsupported device mode")

// Device is an open tun/tap device.
type Device struct {
	// Name is the interface name, e.g. "tap0".
	Name string

	// Mode is the layer the device operates at.
	Mode Mode

	fd int
}

// Open creates (or attaches to) the named tun/tap device.
func Open(name string, mode Mode) (*Device, error) {
	var flags uint16
	switch mode {
	case Tun:
		flags = unix.IFF_TUN | unix.IFF_NO_PI
	case Tap:
		flags = unix.IFF_TAP | unix.IFF_NO_PI
	default:
		return nil, ErrDeviceMode
	}

	fd, err := unix.Open("/dev/net/tun", unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("tuntap: open /dev/net/tun: %w", err)
	}

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tuntap: bad device name %q: %w", name, err)
	}
	ifr.SetUint16(flags)
	if err := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tuntap: TUNSETIFF %s: %w", name, err)
	}

	return &Device{Name: ifr.Name(), Mode: mode, fd: fd}, nil
}

// Read reads one packet or frame from the device. It blocks until the
// kernel has something to deliver.
func (d *Device) Read(b []byte) (int, error) {
	return unix.Read(d.fd, b)
}

// Write writes one packet or frame to the device.
func (d *Device) Write(b []byte) (int, error) {
	return unix.Write(d.fd, b)
}

// Close detaches from the device.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// LinkAddress returns the MAC address the kernel assigned to the device.
func (d *Device) LinkAddress() (tcpip.LinkAddress, error) {
	iface, err := net.InterfaceByName(d.Name)
	if err != nil {
		return "", fmt.Errorf("tuntap: lookup %s: %w", d.Name, err)
	}
	return tcpip.LinkAddress(iface.HardwareAddr), nil
}

// SetUp brings the device up, as "ip link set <name> up" would.
func (d *Device) SetUp() error {
	return ipCmd("link", "set", d.Name, "up")
}

// AddAddress assigns an address in CIDR form to the device on the host
// side, as "ip addr add <cidr> dev <name>" would.
func (d *Device) AddAddress(cidr string) error {
	return ipCmd("addr", "add", cidr, "dev", d.Name)
}

// AddRoute points a host route for the CIDR at the device, as
// "ip route add <cidr> dev <name>" would.
func (d *Device) AddRoute(cidr string) error {
	return ipCmd("route", "add", cidr, "dev", d.Name)
}

func ipCmd(args ...string) error {
	out, err := exec.Command("ip", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tuntap: ip %v: %v: %s", args, err, out)
	}
	return nil
}
