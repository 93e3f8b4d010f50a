package trackio

import (
	"sdimage/imagefmt"
)

// Raw bit-cell sync patterns, transmitted literally (no MFM run-length
// masking), per spec.md §6.
const (
	syncA1 uint16 = 0x4489 // clock-violating A1, MFM address marks
	syncC2 uint16 = 0x5224 // clock-violating C2, MFM index mark
)

const (
	fillMFM byte = 0x4e
	fillFM  byte = 0xff
)

// cellCoder turns data bytes into 16-bit bit-cell words, carrying the
// MFM run-length state (the clock bit of a zero data bit depends on
// the previous data bit) across calls, per spec.md §4.6's "MFM
// run-length rule" and mfm/writer.go's Writer.writeBit.
type cellCoder struct {
	isFM    bool
	lastBit int
}

func (c *cellCoder) encodeByte(b byte) uint16 {
	if c.isFM {
		return encodeByteFM(b)
	}
	var word uint16
	bit := c.lastBit
	for i := 7; i >= 0; i-- {
		d := int((b >> uint(i)) & 1)
		clock := 0
		if d == 0 {
			clock = bit ^ 1
		}
		word = (word << 2) | (uint16(clock) << 1) | uint16(d)
		bit = d
	}
	c.lastBit = bit
	return word
}

// encodeByteFM gives every data bit an unconditional clock bit of 1,
// the plain FM encoding (no run-length dependency).
func encodeByteFM(b byte) uint16 {
	var word uint16
	for i := 7; i >= 0; i-- {
		d := (b >> uint(i)) & 1
		word = (word << 2) | (1 << 1) | uint16(d)
	}
	return word
}

// fmSyncWord builds an FM address-mark pattern from its data byte and
// clock byte, interleaving clock bits on the odd cell positions per
// spec.md §6 ("`fm_sync(data,clock)` where odd bits are the clock
// pattern").
func fmSyncWord(data, clock byte) uint16 {
	var word uint16
	for i := 7; i >= 0; i-- {
		d := (data >> uint(i)) & 1
		cl := (clock >> uint(i)) & 1
		word = (word << 2) | (uint16(cl) << 1) | uint16(d)
	}
	return word
}

const (
	fmSyncIAMClock  = 0xd7
	fmSyncMarkClock = 0xc7
)

// maxChunkBytes is the sub-chunking granularity spec.md §4.6 prescribes
// for sector data and gaps larger than 1024 bytes.
const maxChunkBytes = 1024

// chunk is one pre-encoded slice of bit-cell words ready for the ring,
// tagged with the decode_pos value it corresponds to (spec.md §4.5's
// calc_start_pos state numbering) for Position/State reporting.
type chunk struct {
	words     []uint16
	decodePos int
}

// Encoder is the streaming track encoder (C6): Tick() pushes as many
// bit-cell words of a precomputed per-rotation plan into a Ring as it
// has room for, returning false when it could push none, per spec.md
// §5's non-blocking tick contract.
type Encoder struct {
	pos    *Position
	chunks []chunk
	ci     int // current chunk index
	wi     int // word index within chunks[ci]
}

// NewEncoder builds the full per-rotation bit-cell plan for pos,
// reading sector payloads from img via pos's sector offsets.
func NewEncoder(img *imagefmt.Image, pos *Position) (*Encoder, error) {
	chunks, err := buildTrackPlan(img, pos)
	if err != nil {
		return nil, err
	}
	return &Encoder{pos: pos, chunks: chunks}, nil
}

// Tick pushes as many pending bit-cell words as ring has room for,
// advancing to the next plan chunk as each empties. Returns true if it
// made any progress (pushed at least one word), false if ring was
// already full or the plan is exhausted.
func (e *Encoder) Tick(ring *Ring) bool {
	progress := false
	for e.ci < len(e.chunks) {
		words := e.chunks[e.ci].words
		for e.wi < len(words) {
			if !ring.Push(words[e.wi]) {
				return progress
			}
			e.wi++
			progress = true
		}
		e.ci++
		e.wi = 0
	}
	return progress
}

// Done reports whether the full rotation has been emitted.
func (e *Encoder) Done() bool { return e.ci >= len(e.chunks) }

// DecodePos reports the spec.md §4.5 calc_start_pos state for the
// chunk currently being emitted (or the terminal pre-index-gap value
// once exhausted).
func (e *Encoder) DecodePos() int {
	if e.ci >= len(e.chunks) {
		return 4*len(e.pos.Secs) + 1
	}
	return e.chunks[e.ci].decodePos
}

func buildTrackPlan(img *imagefmt.Image, pos *Position) ([]chunk, error) {
	trk := pos.Trk
	p := pos.Params
	coder := &cellCoder{isFM: p.IsFM}

	var plan []chunk
	fill := fillMFM
	if p.IsFM {
		fill = fillFM
	}

	emitFill := func(decodePos, n int, b byte) {
		for n > 0 {
			take := n
			if take > maxChunkBytes {
				take = maxChunkBytes
			}
			words := make([]uint16, take)
			for i := range words {
				words[i] = coder.encodeByte(b)
			}
			plan = append(plan, chunk{words: words, decodePos: decodePos})
			n -= take
		}
	}
	emitBytes := func(decodePos int, data []byte) {
		for off := 0; off < len(data); off += maxChunkBytes {
			end := off + maxChunkBytes
			if end > len(data) {
				end = len(data)
			}
			words := make([]uint16, end-off)
			for i, b := range data[off:end] {
				words[i] = coder.encodeByte(b)
			}
			plan = append(plan, chunk{words: words, decodePos: decodePos})
		}
	}
	emitRaw := func(decodePos int, words []uint16, lastBit int) {
		cp := make([]uint16, len(words))
		copy(cp, words)
		plan = append(plan, chunk{words: cp, decodePos: decodePos})
		coder.lastBit = lastBit
	}

	gapSync := func() []byte { return make([]byte, p.GapSyncLen) }

	// Head-1 track delay (XDF): an extra fill before anything else on
	// the wire, shifting every later field's bit-cell position by
	// trk.TrackDelayBC bit-cells without touching the sector layout
	// itself.
	if trk.TrackDelayBC > 0 {
		emitFill(0, trk.TrackDelayBC/cellsPerByte, fill)
	}

	// Post-index gap.
	emitFill(0, p.Gap4A, fill)
	if trk.HasIAM {
		emitBytes(0, gapSync())
		if p.IsFM {
			emitRaw(0, []uint16{fmSyncWord(0xfc, fmSyncIAMClock)}, 0)
			emitFill(0, 26, fill)
		} else {
			emitRaw(0, []uint16{syncC2, syncC2, syncC2}, 0)
			emitBytes(0, []byte{0xfc})
			emitFill(0, 50, fill)
		}
	}

	for k := 0; k < len(pos.Secs); k++ {
		secIdx := pos.SecMap[k]
		sec := pos.Secs[secIdx]

		// IDAM.
		idamPos := 1 + 4*k + 0
		emitBytes(idamPos, gapSync())
		var head byte
		if trk.Head != 0 {
			head = byte(trk.Head - 1)
		} else {
			head = byte(pos.Side)
		}
		chs := []byte{byte(pos.Cyl), head, sec.R, sec.N}
		if p.IsFM {
			emitRaw(idamPos, []uint16{fmSyncWord(0xfe, fmSyncMarkClock)}, 0)
		} else {
			emitRaw(idamPos, []uint16{syncA1, syncA1, syncA1}, 1)
			emitBytes(idamPos, []byte{0xfe})
		}
		emitBytes(idamPos, chs)
		crc := markCRCInit(p.IsFM, 0xfe)
		crc = crc16CCITT(crc, chs)
		emitBytes(idamPos, []byte{byte(crc >> 8), byte(crc)})
		if p.PostCRCSyncs > 0 && !p.IsFM {
			words := make([]uint16, p.PostCRCSyncs)
			for i := range words {
				words[i] = syncA1
			}
			emitRaw(idamPos, words, 1)
		}
		emitFill(idamPos, p.Gap2, fill)

		// DAM.
		damPos := 1 + 4*k + 1
		emitBytes(damPos, gapSync())
		if p.IsFM {
			emitRaw(damPos, []uint16{fmSyncWord(0xfb, fmSyncMarkClock)}, 1)
		} else {
			emitRaw(damPos, []uint16{syncA1, syncA1, syncA1}, 1)
			emitBytes(damPos, []byte{0xfb})
		}

		// Data.
		dataPos := 1 + 4*k + 2
		data, err := fetchSectorData(img, pos, k)
		if err != nil {
			return nil, err
		}
		wire := data
		if trk.InvertData {
			wire = make([]byte, len(data))
			for i, b := range data {
				wire[i] = ^b
			}
		}
		// The CRC covers the bytes actually transmitted on the wire, so
		// an inverted-data track's CRC is taken over the inverted bytes,
		// matching what a real read channel checks.
		dataCRC := crc16CCITT(markCRCInit(p.IsFM, 0xfb), wire)
		emitBytes(dataPos, wire)

		// Post-data.
		postPos := 1 + 4*k + 3
		emitBytes(postPos, []byte{byte(dataCRC >> 8), byte(dataCRC)})
		if p.PostCRCSyncs > 0 && !p.IsFM {
			words := make([]uint16, p.PostCRCSyncs)
			for i := range words {
				words[i] = syncA1
			}
			emitRaw(postPos, words, 1)
		}
		emitFill(postPos, p.Gap3, fill)
	}

	// Pre-index gap: whatever is left of TrackLenBC.
	usedBC := 0
	for _, c := range plan {
		usedBC += len(c.words) * cellsPerByte
	}
	remainingBytes := (p.TrackLenBC - usedBC) / cellsPerByte
	if remainingBytes > 0 {
		emitFill(4*len(pos.Secs)+1, remainingBytes, fill)
	}

	return plan, nil
}

// fetchSectorData reads sector k's (rotational-order index) payload
// from the backing file via ReadSector.
func fetchSectorData(img *imagefmt.Image, pos *Position, k int) ([]byte, error) {
	return ReadSector(img, pos, pos.SecMap[k])
}
