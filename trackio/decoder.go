package trackio

import "errors"

// Sentinel write_sector values, per spec.md §7's decided Open Question
// #2: -1 means no IDAM has been seen yet this track, -2 means a DAM or
// CRC mismatch has invalidated the current sector until the next IDAM.
const (
	sectorNone    = -1
	sectorInvalid = -2
)

// Errors the decoder reports for a sector write attempt, per spec.md §7.
var (
	ErrCrcMismatch          = errors.New("trackio: CRC mismatch")
	ErrUnknownSectorID      = errors.New("trackio: sector id not present on this track")
	ErrMidTrackUnresolvable = errors.New("trackio: mid-track write start could not be resolved to a sector")
)

// hunt states for the Decoder's Tick state machine.
type huntState int

const (
	huntSync huntState = iota
	huntMark
	huntIDAMBody
	huntIDAMCRC
	huntGap2
	huntDAMBody
	huntDataCRC
)

// Decoder is the streaming track decoder (C7): Tick() consumes one
// bit-cell word at a time from a Ring, hunting for address marks and
// assembling sector data, per spec.md §4.7.
type Decoder struct {
	pos *Position
	p   TrackParams

	state   huntState
	coder   cellCoder
	syncRun int // consecutive raw A1 sync words seen, MFM marks need 3

	pendingByte []byte // bytes accumulated for the field currently in progress
	want        int    // bytes wanted before the current field completes
	crcBytes    []byte // scratch CRC-byte accumulator for huntDataCRC

	chs       [4]byte // cyl, head, sec, n from the most recent IDAM
	crcRun    uint16
	curSecIdx int // index into pos.Secs matching the last IDAM, or -1

	writeSector int // sentinel per spec.md §7, one of sectorNone/sectorInvalid or a valid index into pos.Secs

	// wordsConsumed counts every bit-cell word popped off the ring since
	// the decoder was created, i.e. elapsed time since (approximately)
	// the index pulse in word units; resolveSectorForWrite converts this
	// to bit-cells to localize a mid-track write start.
	wordsConsumed int64

	// OnSector is invoked once per decoded sector, with secIdx the index
	// into pos.Secs. A data CRC mismatch does not suppress it: OnError
	// reports ErrCrcMismatch first and OnSector still receives the bytes.
	OnSector func(secIdx int, data []byte)
	// OnError is invoked on a CRC mismatch, an IDAM whose sector id is not
	// on this track, or an unresolved mid-track start.
	OnError func(err error)
}

// NewDecoder prepares a decoder for pos, starting in the "no IDAM seen
// yet" state.
func NewDecoder(pos *Position) *Decoder {
	return &Decoder{
		pos:         pos,
		p:           pos.Params,
		coder:       cellCoder{isFM: pos.Params.IsFM},
		state:       huntSync,
		writeSector: sectorNone,
		curSecIdx:   -1,
	}
}

// Tick consumes one word from ring and advances the hunt/decode state
// machine. Returns false when ring had nothing to pop.
func (d *Decoder) Tick(ring *Ring) bool {
	word, ok := ring.Pop()
	if !ok {
		return false
	}
	d.wordsConsumed++
	d.feed(word)
	return true
}

func (d *Decoder) feed(word uint16) {
	switch d.state {
	case huntSync:
		d.huntForSync(word)
	default:
		b, gotByte := d.decodeWord(word)
		if !gotByte {
			return
		}
		d.consumeByte(b)
	}
}

// huntForSync looks for a literal address-mark sync pattern on the
// wire: MFM's clock-violating A1/C2 (0x4489/0x5224), transmitted raw by
// the encoder three times in a row ahead of the mark byte, or FM's
// fm_sync pattern recognised the same way (FM encodes mark and clock
// together, no separate mark byte follows).
func (d *Decoder) huntForSync(word uint16) {
	switch word {
	case syncA1:
		d.syncRun++
		if d.syncRun >= 3 {
			d.syncRun = 0
			d.beginField(huntMark, 1)
			d.coder.lastBit = 1
		}
	case syncC2:
		// Index mark; not itself a data field consumer cares about, but
		// it resets the run-length state same as any other mark.
		d.syncRun = 0
		d.coder.lastBit = 0
	default:
		d.syncRun = 0
		if d.p.IsFM && (word == fmSyncWord(0xfe, fmSyncMarkClock) || word == fmSyncWord(0xfb, fmSyncMarkClock)) {
			mark := byte(0xfe)
			if word == fmSyncWord(0xfb, fmSyncMarkClock) {
				mark = 0xfb
			}
			d.onMark(mark)
		}
	}
}

// decodeWord turns one bit-cell word back into its data byte, for non-
// sync words following a recognised mark.
func (d *Decoder) decodeWord(word uint16) (byte, bool) {
	var b byte
	bit := d.coder.lastBit
	for i := 7; i >= 0; i-- {
		clock := (word >> uint(2*i+1)) & 1
		data := (word >> uint(2*i)) & 1
		if !d.p.IsFM {
			expected := 0
			if data == 0 {
				expected = bit ^ 1
			}
			if int(clock) != expected {
				// Clock violation mid-field: treat as a resync point,
				// drop the partial field.
				d.state = huntSync
				return 0, false
			}
		}
		b = (b << 1) | byte(data)
		bit = int(data)
	}
	d.coder.lastBit = bit
	return b, true
}

func (d *Decoder) beginField(s huntState, want int) {
	d.state = s
	d.pendingByte = d.pendingByte[:0]
	d.want = want
}

func (d *Decoder) consumeByte(b byte) {
	switch d.state {
	case huntMark:
		d.onMark(b)
	case huntIDAMBody:
		d.pendingByte = append(d.pendingByte, b)
		if len(d.pendingByte) == 4 {
			copy(d.chs[:], d.pendingByte)
			d.crcRun = crc16CCITT(markCRCInit(d.p.IsFM, 0xfe), d.pendingByte)
			d.beginField(huntIDAMCRC, 2)
		}
	case huntIDAMCRC:
		d.pendingByte = append(d.pendingByte, b)
		if len(d.pendingByte) == 2 {
			got := uint16(d.pendingByte[0])<<8 | uint16(d.pendingByte[1])
			if got != d.crcRun {
				d.writeSector = sectorInvalid
				d.reportError(ErrCrcMismatch)
			} else {
				d.resolveIDAM()
			}
			d.state = huntSync
		}
	case huntDAMBody:
		d.pendingByte = append(d.pendingByte, b)
		want := d.want
		if len(d.pendingByte) == want {
			wire := make([]byte, want)
			copy(wire, d.pendingByte)
			d.beginField(huntDataCRC, 2)
			d.want = 2
			d.crcRun = crc16CCITT(markCRCInit(d.p.IsFM, 0xfb), wire)
			if d.pos.Trk.InvertData {
				for i, b := range wire {
					wire[i] = ^b
				}
			}
			d.pendingByte = wire // now logical data, stashed for the OnSector callback
		}
	case huntDataCRC:
		// pendingByte currently holds the data; accumulate CRC bytes
		// separately using want/len bookkeeping via a small local buffer.
		d.crcBytes = append(d.crcBytes, b)
		if len(d.crcBytes) == 2 {
			got := uint16(d.crcBytes[0])<<8 | uint16(d.crcBytes[1])
			data := d.pendingByte
			d.crcBytes = nil
			if got != d.crcRun {
				d.reportError(ErrCrcMismatch)
			}
			// Keep the write even on a CRC mismatch (firmware
			// convention, spec.md §4.7 step 4): the caller still gets
			// the decoded bytes, just after being told they're suspect.
			if d.writeSector >= 0 && d.OnSector != nil {
				d.OnSector(d.curSecIdx, data)
			}
			d.writeSector = sectorInvalid
			d.state = huntSync
		}
	}
}

func (d *Decoder) onMark(mark byte) {
	switch mark {
	case 0xfe:
		d.beginField(huntIDAMBody, 4)
	case 0xfb, 0xf8:
		d.resolveSectorForWrite()
		d.beginField(huntDAMBody, d.currentSectorSize())
	default:
		d.state = huntSync
	}
}

// resolveIDAM matches the just-verified IDAM's C/H/R/N against this
// track's known sectors, setting write_sector to the match or to
// sectorInvalid (unknown id) per spec.md §4.7.
func (d *Decoder) resolveIDAM() {
	r, n := d.chs[2], d.chs[3]
	for i, s := range d.pos.Secs {
		if s.R == r && s.N == n {
			d.writeSector = i
			d.curSecIdx = i
			return
		}
	}
	d.writeSector = sectorInvalid
	d.curSecIdx = -1
	d.reportError(ErrUnknownSectorID)
}

// resolveSectorForWrite implements raw_find_first_write_sector for the
// mid-track-start case: if no IDAM has been seen yet this rotation
// (write_sector == sectorNone), localize the write start from elapsed
// bit-cells consumed since the decoder began (standing in for
// write_start_ticks/ticks_per_cell), less track_delay_bc, against each
// rotational slot's expected cumulative bit-cell offset, picking the
// slot whose offset is within 64 bit-cells of where the DAM mark
// actually landed.
func (d *Decoder) resolveSectorForWrite() {
	if d.writeSector != sectorNone {
		return
	}
	elapsedBC := d.wordsConsumed*cellsPerByte - int64(d.pos.Trk.TrackDelayBC)

	mark, gap1, postSyncs := 4, 50, d.p.PostCRCSyncs // MFM: 3 raw sync words + mark byte
	if d.p.IsFM {
		mark, gap1, postSyncs = 1, 26, 0
	}
	cum := int64(d.p.Gap4A) // bytes emitted before the current slot's IDAM
	if d.p.HasIAM {
		cum += int64(d.p.GapSyncLen + mark + gap1)
	}
	toDAM := int64(2*(d.p.GapSyncLen+mark) + 6 + postSyncs + d.p.Gap2)

	best := -1
	var bestDist int64 = -1
	for slot, secIdx := range d.pos.SecMap {
		dist := elapsedBC - (cum+toDAM)*cellsPerByte
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = slot, dist
		}
		cum += toDAM + int64(d.pos.Secs[secIdx].Size()+2+postSyncs+d.p.Gap3)
	}
	if best < 0 || bestDist > 64 {
		d.writeSector = sectorInvalid
		d.curSecIdx = -1
		d.reportError(ErrMidTrackUnresolvable)
		return
	}
	d.curSecIdx = d.pos.SecMap[best]
	d.writeSector = d.curSecIdx
}

func (d *Decoder) currentSectorSize() int {
	if d.curSecIdx < 0 || d.curSecIdx >= len(d.pos.Secs) {
		return 0
	}
	return d.pos.Secs[d.curSecIdx].Size()
}

func (d *Decoder) reportError(err error) {
	if d.OnError != nil {
		d.OnError(err)
	}
}

// WriteSector returns the current write_sector sentinel or resolved
// sector index, per spec.md §7.
func (d *Decoder) WriteSector() int { return d.writeSector }
