package capture

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Datagram is one extracted UDP payload with its capture metadata.
type Datagram struct {
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	Payload   []byte
}

// ToServer reports whether the datagram was headed for the game port.
func (d Datagram) ToServer(port int) bool {
	return int(d.DstPort) == port
}

// ExtractPayloads reads a pcap file and returns all UDP payloads touching
// the game port, in capture order.
func ExtractPayloads(pcapFile string, port int) ([]Datagram, error) {
	file, err := os.Open(pcapFile)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer file.Close()

	reader, err := pcapgo.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read pcap header: %w", err)
	}

	var datagrams []Datagram
	for {
		data, ci, err := reader.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read packet: %w", err)
		}

		packet := gopacket.NewPacket(data, reader.LinkType(), gopacket.Default)
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, _ := udpLayer.(*layers.UDP)
		if int(udp.SrcPort) != port && int(udp.DstPort) != port {
			continue
		}
		if len(udp.Payload) == 0 {
			continue
		}

		d := Datagram{
			Timestamp: ci.Timestamp,
			SrcPort:   uint16(udp.SrcPort),
			DstPort:   uint16(udp.DstPort),
			Payload:   append([]byte(nil), udp.Payload...),
		}
		if netLayer := packet.NetworkLayer(); netLayer != nil {
			flow := netLayer.NetworkFlow()
			d.SrcIP = flow.Src().String()
			d.DstIP = flow.Dst().String()
		}
		datagrams = append(datagrams, d)
	}
	return datagrams, nil
}
