//go:build !pcap
// +build !pcap

package stream

import (
	"strings"
	"testing"
)

func TestReadPCAP_Stub(t *testing.T) {
	_, err := ReadPCAP(Sent, "capture.pcap", 9000)
	if err == nil {
		t.Fatal("expected error from stub")
	}
	if !strings.Contains(err.Error(), "-tags=pcap") {
		t.Errorf("error %q should mention the pcap build tag", err)
	}
}
