//go:build !pcap
// +build !pcap

package stream

import "fmt"

// ReadPCAP is a stub when PCAP support is disabled.
// Build with -tags=pcap to enable capture file extraction.
func ReadPCAP(role Role, path string, udpPort int) (Sequence, error) {
	return Sequence{}, fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to read %s", path)
}
