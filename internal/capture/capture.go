// Package capture records game traffic to pcap files and extracts the UDP
// payloads back out for replay.
package capture

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
)

// Options configures a live capture session.
type Options struct {
	Interface string
	Port      int // game server UDP port
	SnapLen   int32
	Promisc   bool
}

// Capture is a running live capture session.
type Capture struct {
	handle   *pcap.Handle
	writer   *pcapgo.Writer
	file     *os.File
	count    int
	countMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Start opens a live capture filtered to the game port and streams matched
// packets into outputFile.
func Start(opts Options, outputFile string) (*Capture, error) {
	snapLen := opts.SnapLen
	if snapLen <= 0 {
		snapLen = 65535
	}

	handle, err := pcap.OpenLive(opts.Interface, snapLen, opts.Promisc, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open live capture on %s: %w", opts.Interface, err)
	}

	filter := fmt.Sprintf("udp port %d", opts.Port)
	if err := handle.SetBPFFilter(filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("set BPF filter %q: %w", filter, err)
	}

	file, err := os.Create(outputFile)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("create pcap file: %w", err)
	}

	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(uint32(snapLen), handle.LinkType()); err != nil {
		file.Close()
		handle.Close()
		return nil, fmt.Errorf("write pcap header: %w", err)
	}

	c := &Capture{
		handle:   handle,
		writer:   writer,
		file:     file,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.captureLoop()
	return c, nil
}

func (c *Capture) captureLoop() {
	defer close(c.done)
	packetSource := gopacket.NewPacketSource(c.handle, c.handle.LinkType())

	for {
		select {
		case <-c.stopChan:
			return
		case packet, ok := <-packetSource.Packets():
			if !ok {
				return
			}
			ci := packet.Metadata().CaptureInfo
			if err := c.writer.WritePacket(ci, packet.Data()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to write packet: %v\n", err)
				continue
			}
			c.countMu.Lock()
			c.count++
			c.countMu.Unlock()
		}
	}
}

// PacketCount returns the number of packets written so far.
func (c *Capture) PacketCount() int {
	c.countMu.Lock()
	defer c.countMu.Unlock()
	return c.count
}

// Stop ends the capture and closes the file. Idempotent.
func (c *Capture) Stop() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		c.handle.Close()
		select {
		case <-c.done:
		case <-time.After(time.Second):
		}
		c.file.Close()
	})
	return nil
}
