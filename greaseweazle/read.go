package greaseweazle

import (
	"encoding/binary"
	"fmt"
	"io"

	"sdimage/pll"
)

// readN28 decodes a 28-bit value from Greaseweazle N28 encoding
// Returns the decoded value and the number of bytes consumed
func readN28(data []byte, offset int) (uint32, int, error) {
	if offset+4 > len(data) {
		return 0, 0, fmt.Errorf("insufficient data for N28 encoding at offset %d", offset)
	}

	b0 := data[offset]
	b1 := data[offset+1]
	b2 := data[offset+2]
	b3 := data[offset+3]

	value := ((uint32(b0) & 0xfe) >> 1) |
		((uint32(b1) & 0xfe) << 6) |
		((uint32(b2) & 0xfe) << 13) |
		((uint32(b3) & 0xfe) << 20)

	return value, 4, nil
}

// ReadFlux reads raw flux data from the current track
// ticks: maximum ticks to read (0 = no limit)
// maxIndex: maximum index pulses to read (0 = no limit, typically 2 for 2 revolutions)
func (c *Client) ReadFlux(ticks uint32, maxIndex uint16) ([]byte, error) {
	// Build CMD_READ_FLUX command: [CMD_READ_FLUX, 8, ticks (le32), maxIndex (le16)]
	cmd := make([]byte, 8)
	cmd[0] = CMD_READ_FLUX
	cmd[1] = 8
	binary.LittleEndian.PutUint32(cmd[2:6], ticks)
	binary.LittleEndian.PutUint16(cmd[6:8], maxIndex)

	err := c.doCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to send READ_FLUX command: %w", err)
	}

	// Read flux data until we encounter a 0 byte (end of stream marker)
	var data []byte
	buf := make([]byte, 1)
	for {
		_, err := io.ReadFull(c.port, buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read flux data: %w", err)
		}
		if buf[0] == 0 {
			break
		}
		data = append(data, buf[0])
	}

	return data, nil
}

// parsedFlux is the result of decoding a Greaseweazle flux stream into
// absolute transition and index-pulse times, shared by
// calculateRPMAndBitRate and DecodeFluxToBitcells so the opcode parsing
// (N28, direct, extended intervals) lives in one place.
type parsedFlux struct {
	transitions []uint64 // every flux reversal, nanoseconds from stream start
	indexPulses []uint64 // every index pulse, nanoseconds from stream start
}

func parseFluxStream(fluxData []byte, tickPeriodNs float64) (parsedFlux, error) {
	var out parsedFlux
	ticksAccumulated := uint64(0)

	i := 0
	for i < len(fluxData) {
		b := fluxData[i]

		if b == 0xFF {
			if i+1 >= len(fluxData) {
				return out, fmt.Errorf("incomplete opcode at offset %d", i)
			}
			opcode := fluxData[i+1]
			i += 2

			switch opcode {
			case FLUXOP_INDEX:
				n28, consumed, err := readN28(fluxData, i)
				_ = n28
				if err != nil {
					return out, fmt.Errorf("failed to read INDEX N28: %w", err)
				}
				i += consumed
				out.indexPulses = append(out.indexPulses, uint64(float64(ticksAccumulated)*tickPeriodNs))

			case FLUXOP_SPACE:
				n28, consumed, err := readN28(fluxData, i)
				if err != nil {
					return out, fmt.Errorf("failed to read SPACE N28: %w", err)
				}
				i += consumed
				if DebugFlag {
					fmt.Printf(" %d", n28)
				}
				ticksAccumulated += uint64(n28)

			default:
				return out, fmt.Errorf("unknown opcode 0x%02x at offset %d", opcode, i-1)
			}
		} else if b < 250 {
			if DebugFlag {
				fmt.Printf(" %d", b)
			}
			ticksAccumulated += uint64(b)
			out.transitions = append(out.transitions, uint64(float64(ticksAccumulated)*tickPeriodNs))
			i++
		} else {
			if i+1 >= len(fluxData) {
				return out, fmt.Errorf("incomplete extended interval at offset %d", i)
			}
			delta := 250 + uint64(b-250)*255 + uint64(fluxData[i+1]) - 1
			if DebugFlag {
				fmt.Printf(" %d", delta)
			}
			ticksAccumulated += delta
			out.transitions = append(out.transitions, uint64(float64(ticksAccumulated)*tickPeriodNs))
			i += 2
		}
	}

	return out, nil
}

// Extract index pulse timings from flux data.
// Calculate RPM and bit rate.
// Return the calculated RPM: 300 or 360.
// Return the calculated bit rate: 250, 500 or 1000 bits/msec.
func (c *Client) calculateRPMAndBitRate(fluxData []byte) (uint16, uint16) {
	tickPeriodNs := 1e9 / float64(c.firmwareInfo.SampleFreqHz)
	parsed, err := parseFluxStream(fluxData, tickPeriodNs)
	if err != nil || len(parsed.indexPulses) < 2 {
		return 300, 250 // Default RPM and bit rate
	}

	trackDurationNs := parsed.indexPulses[1] - parsed.indexPulses[0]

	var countTransitions uint64
	for _, t := range parsed.transitions {
		if t >= parsed.indexPulses[0] && t <= parsed.indexPulses[1] {
			countTransitions++
		}
	}

	// Calculate RPM: 60 seconds per minute / period in seconds.
	// Round to either 300 or 360 RPM, the standard floppy drive speeds,
	// using 330 RPM as the midpoint threshold.
	rpm := 60e9 / trackDurationNs
	if rpm < 330 {
		rpm = 300
	} else {
		rpm = 360
	}

	// Calculate bit rate, rounded to the standard 250/500/1000 kbps
	// classes using 375/750 as thresholds.
	bitsPerMsec := countTransitions * 1e6 / trackDurationNs
	if bitsPerMsec < 375 {
		bitsPerMsec = 250
	} else if bitsPerMsec < 750 {
		bitsPerMsec = 500
	} else {
		bitsPerMsec = 1000
	}

	return uint16(rpm), uint16(bitsPerMsec)
}

// DecodeFluxToBitcells recovers raw bit-cells from Greaseweazle flux data
// for one rotation, running the flux transitions between the first two
// index pulses through pll.Decoder. The returned slice has one bool per
// bit-cell (true = 1), ready to be packed 16-at-a-time into trackio.Ring
// words by package frontend.
func (c *Client) DecodeFluxToBitcells(fluxData []byte, bitRateKhz uint16) ([]bool, error) {
	if len(fluxData) == 0 {
		return nil, fmt.Errorf("empty flux data")
	}

	tickPeriodNs := 1e9 / float64(c.firmwareInfo.SampleFreqHz)
	parsed, err := parseFluxStream(fluxData, tickPeriodNs)
	if err != nil {
		return nil, err
	}
	if len(parsed.indexPulses) < 1 {
		return nil, fmt.Errorf("no index pulse found in flux data")
	}

	start := parsed.indexPulses[0]
	end := uint64(1<<63 - 1)
	if len(parsed.indexPulses) >= 2 {
		end = parsed.indexPulses[1]
	}

	var transitions []uint64
	for _, t := range parsed.transitions {
		if t < start || t > end {
			continue
		}
		transitions = append(transitions, t-start)
	}
	if len(transitions) == 0 {
		return nil, fmt.Errorf("no flux transitions found within one rotation")
	}

	decoder := pll.NewDecoder(transitions, bitRateKhz)

	// Ignore first half-bit, as the PLL has not yet locked to the first
	// transition.
	_ = decoder.NextBit()

	var bitcells []bool
	for {
		bitcells = append(bitcells, decoder.NextBit())
		if decoder.IsDone() {
			break
		}
	}
	if len(bitcells) == 0 {
		return nil, fmt.Errorf("no bitcells generated")
	}
	return bitcells, nil
}
