//go:build pcap
// +build pcap

package stream

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ReadPCAP extracts one unit per non-empty UDP payload on udpPort from a
// capture file, in capture order.
func ReadPCAP(role Role, path string, udpPort int) (Sequence, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return Sequence{}, fmt.Errorf("failed to open PCAP file %s: %w", path, err)
	}
	defer handle.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		return Sequence{}, fmt.Errorf("failed to set BPF filter '%s': %w", filter, err)
	}

	var units []Unit
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		units = append(units, Unit(udp.Payload))
	}
	return Sequence{role: role, origin: OriginPCAP, units: units}, nil
}
