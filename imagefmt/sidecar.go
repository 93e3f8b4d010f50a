package imagefmt

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"sdimage/layout"
)

// selectSidecarZones loads the sidecar config at path (if it exists),
// scores its sections against tag and imSize, and returns the winning
// section's zones. Returns nil, nil if the sidecar file does not exist
// or has no sections at all — not an error, per spec.md §4.3 step 1's
// "if a sidecar config exists".
func selectSidecarZones(path, tag string, imSize int64) ([]zoneParams, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	sections, err := parseSidecar(f)
	if err != nil {
		return nil, err
	}
	sec, ok := selectSection(sections, tag, imSize)
	if !ok {
		return nil, nil
	}
	return parseZones(sec.Options), nil
}

// keyValue is one recognised sidecar option line, per spec.md §6's
// config-file grammar table.
type keyValue struct {
	Key   string
	Value string
}

// section is one `[name]` or `[name::size]` block and the key=value
// lines under it, in file order.
type section struct {
	Name    string
	HasSize bool
	Size    int64
	Options []keyValue
}

// parseSidecar tokenizes the minimal line-oriented grammar from
// spec.md §6: `[name]`/`[name::size]` headers and `key=value` lines.
// This tokenizer is deliberately mechanical — spec.md places the real
// one outside this spec's scope (an external collaborator) — but a
// concrete implementation is needed to exercise the scoring logic in
// §4.3 step 1.
func parseSidecar(r io.Reader) ([]section, error) {
	var sections []section
	cur := section{} // implicit leading default section, name=""
	haveCur := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if haveCur {
				sections = append(sections, cur)
			}
			cur = section{}
			haveCur = true
			inner := line[1 : len(line)-1]
			if idx := strings.Index(inner, "::"); idx >= 0 {
				cur.Name = strings.TrimSpace(inner[:idx])
				sizeStr := strings.TrimSpace(inner[idx+2:])
				size, err := strconv.ParseInt(sizeStr, 10, 64)
				if err == nil {
					cur.HasSize = true
					cur.Size = size
				}
			} else {
				cur.Name = inner
			}
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		val := strings.TrimSpace(line[eq+1:])
		if !haveCur {
			haveCur = true
		}
		cur.Options = append(cur.Options, keyValue{Key: key, Value: val})
	}
	if haveCur {
		sections = append(sections, cur)
	}
	return sections, scanner.Err()
}

// scoreSection implements spec.md §4.3 step 1's scoring rule: +4 if the
// section's name equals tag, +2 if its declared size matches imSize,
// -100 on any mismatch of a non-empty name or a non-matching declared
// size, +1 for an empty-name default section.
func scoreSection(s section, tag string, imSize int64) int {
	score := 0
	if s.Name == "" {
		score++
	} else if s.Name == tag {
		score += 4
	} else {
		score -= 100
	}
	if s.HasSize {
		if s.Size == imSize {
			score += 2
		} else {
			score -= 100
		}
	}
	return score
}

// selectSection returns the highest-scoring section, per spec.md §4.3
// step 1's "the highest-scoring active section is processed". Ties
// favour the earlier section in file order.
func selectSection(sections []section, tag string, imSize int64) (section, bool) {
	if len(sections) == 0 {
		return section{}, false
	}
	best := sections[0]
	bestScore := scoreSection(best, tag, imSize)
	for _, s := range sections[1:] {
		sc := scoreSection(s, tag, imSize)
		if sc > bestScore {
			best, bestScore = s, sc
		}
	}
	return best, true
}

// zoneParams accumulates one zone's simple_layout()/tag_add_layout()
// inputs as sidecar key=value options are applied, per spec.md §6's
// config-file grammar table.
type zoneParams struct {
	Cyls       int
	Heads      int
	Secs       int
	N          int
	BaseID     int
	Head       int // 0 = auto
	IsFM       bool
	Interleave int
	CSkew      int
	HSkew      int
	RPM        int
	DataRate   int
	Gap2       int // -1 = auto
	Gap3       int // -1 = auto
	Gap4A      int // -1 = auto
	HasIAM     bool
	Step       int
	TrackSpec  string // raw tracks= value, recorded only; openFromSidecar does not apply it
	Layout     layout.LayoutBits
}

func defaultZoneParams() zoneParams {
	return zoneParams{Interleave: 1, Gap2: -1, Gap3: -1, Gap4A: -1}
}

// applyKeyValue applies one recognised sidecar key to zp, per spec.md
// §6's grammar table. Unrecognised keys are ignored (forward
// compatibility with future sidecar directives).
func applyKeyValue(zp *zoneParams, kv keyValue) {
	switch kv.Key {
	case "cyls":
		zp.Cyls = atoiOr(kv.Value, zp.Cyls)
	case "heads":
		zp.Heads = atoiOr(kv.Value, zp.Heads)
	case "secs":
		zp.Secs = atoiOr(kv.Value, zp.Secs)
	case "bps":
		bps := atoiOr(kv.Value, 0)
		for n := 0; n <= 6; n++ {
			if 128<<uint(n) == bps {
				zp.N = n
				break
			}
		}
	case "id":
		zp.BaseID = atoiOr(kv.Value, zp.BaseID)
	case "h":
		switch kv.Value {
		case "a":
			zp.Head = 0
		case "0":
			zp.Head = 1
		case "1":
			zp.Head = 2
		}
	case "mode":
		zp.IsFM = kv.Value == "fm"
	case "interleave":
		zp.Interleave = atoiOr(kv.Value, zp.Interleave)
	case "cskew":
		zp.CSkew = atoiOr(kv.Value, zp.CSkew)
	case "hskew":
		zp.HSkew = atoiOr(kv.Value, zp.HSkew)
	case "rpm":
		zp.RPM = atoiOr(kv.Value, zp.RPM)
	case "rate":
		zp.DataRate = atoiOr(kv.Value, zp.DataRate)
	case "gap2":
		zp.Gap2 = autoOr(kv.Value, zp.Gap2)
	case "gap3":
		zp.Gap3 = autoOr(kv.Value, zp.Gap3)
	case "gap4a":
		zp.Gap4A = autoOr(kv.Value, zp.Gap4A)
	case "iam":
		zp.HasIAM = kv.Value == "yes"
	case "step":
		zp.Step = atoiOr(kv.Value, zp.Step)
	case "tracks":
		zp.TrackSpec = kv.Value
	case "file-layout":
		for _, tok := range strings.Split(kv.Value, ",") {
			switch strings.TrimSpace(tok) {
			case "sequential":
				zp.Layout |= layout.Sequential
			case "sides-swapped":
				zp.Layout |= layout.SidesSwapped
			case "reverse-side0":
				zp.Layout |= layout.ReverseSide0
			case "reverse-side1":
				zp.Layout |= layout.ReverseSide1
			}
		}
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func autoOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "a" {
		return -1
	}
	return atoiOr(s, fallback)
}

// parseZones splits a section's options into one zoneParams per
// tracks= directive, per spec.md §6: "tracks=c[-c][.h],… | Zone
// selector; starts a new per-track layout."
func parseZones(opts []keyValue) []zoneParams {
	cur := defaultZoneParams()
	started := false
	var zones []zoneParams
	for _, kv := range opts {
		if kv.Key == "tracks" {
			if started {
				zones = append(zones, cur)
				prevLayout := cur.Layout
				cur = defaultZoneParams()
				cur.Layout = prevLayout
			}
			cur.TrackSpec = kv.Value
			started = true
			continue
		}
		applyKeyValue(&cur, kv)
	}
	zones = append(zones, cur)
	return zones
}
