package plugin

import (
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"shardlink/internal/flog"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

var (
	captureClientIP = net.IPv4(10, 0, 0, 1).To4()
	captureServerIP = net.IPv4(10, 0, 0, 2).To4()
)

const (
	captureServerPort = 2593
	captureClientPort = 50000
)

// flow is the synthetic TCP connection one transport is written as.
type flow struct {
	serverPort uint16
	clientPort uint16
	seqIn      uint32
	seqOut     uint32
}

// Capture writes every frame to a pcap file as an IPv4/TCP packet, so the
// dissected frames can be read in any pcap viewer. Each transport gets its
// own port pair; inbound frames travel server to client.
type Capture struct {
	mu      sync.Mutex
	f       *os.File
	w       *pcapgo.Writer
	snaplen int
	flows   map[string]*flow
	buf     gopacket.SerializeBuffer
	errors  atomic.Uint64
}

func NewCapture(path string, snaplen int) (*Capture, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(snaplen), layers.LinkTypeRaw); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &Capture{
		f:       f,
		w:       w,
		snaplen: snaplen,
		flows:   make(map[string]*flow),
		buf:     gopacket.NewSerializeBuffer(),
	}, nil
}

func (c *Capture) Name() string { return "capture" }

func (c *Capture) OnRecv(transport string, frame []byte) ([]byte, bool) {
	c.write(transport, true, frame)
	return frame, true
}

func (c *Capture) OnSend(transport string, frame []byte) ([]byte, bool) {
	c.write(transport, false, frame)
	return frame, true
}

func (c *Capture) flowFor(transport string) *flow {
	fl := c.flows[transport]
	if fl == nil {
		n := uint16(len(c.flows))
		fl = &flow{serverPort: captureServerPort + n, clientPort: captureClientPort + n}
		c.flows[transport] = fl
	}
	return fl
}

// maxSegment keeps the IPv4 total length of one packet within 16 bits.
const maxSegment = 0xFFFF - 20 - 20

func (c *Capture) write(transport string, inbound bool, frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil || len(frame) == 0 {
		return
	}
	fl := c.flowFor(transport)
	id := frame[0]
	for len(frame) > 0 {
		n := min(len(frame), maxSegment)
		if err := c.writeSegment(fl, inbound, frame[:n]); err != nil {
			if c.errors.Add(1) == 1 {
				flog.Warnf("capture of %s frame 0x%02X failed: %v", transport, id, err)
			}
			return
		}
		frame = frame[n:]
	}
}

func (c *Capture) writeSegment(fl *flow, inbound bool, payload []byte) error {
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    captureClientIP,
		DstIP:    captureServerIP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(fl.clientPort),
		DstPort: layers.TCPPort(fl.serverPort),
		Seq:     fl.seqOut,
		Ack:     fl.seqIn,
		ACK:     true,
		PSH:     true,
		Window:  65535,
	}
	if inbound {
		ip.SrcIP, ip.DstIP = captureServerIP, captureClientIP
		tcp.SrcPort, tcp.DstPort = tcp.DstPort, tcp.SrcPort
		tcp.Seq, tcp.Ack = fl.seqIn, fl.seqOut
		fl.seqIn += uint32(len(payload))
	} else {
		fl.seqOut += uint32(len(payload))
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return err
	}

	c.buf.Clear()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(c.buf, opts, ip, tcp, gopacket.Payload(payload)); err != nil {
		return err
	}
	data := c.buf.Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if ci.CaptureLength > c.snaplen {
		ci.CaptureLength = c.snaplen
		data = data[:c.snaplen]
	}
	return c.w.WritePacket(ci, data)
}

// Errors counts frames that could not be written; only the first is logged.
func (c *Capture) Errors() uint64 { return c.errors.Load() }

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f, c.w = nil, nil
	return err
}
