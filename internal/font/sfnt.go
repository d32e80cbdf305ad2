package font

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

const (
	sfntVersionTrueType = 0x00010000
	headMagic           = 0x5F0F3CF5
	checksumMagic       = 0xB1B0AFBA
	checksumAdjOffset   = 8
	sfntHeaderSize      = 12
	sfntDirEntrySize    = 16
)

// Info carries the naming metadata written into the font.
type Info struct {
	FamilyName string
	FontName   string
	Weight     int
	Version    string
	Date       time.Time
}

// table is one sfnt table ready to be placed in a font file. sum is taken
// before the head checksum adjustment is patched in.
type table struct {
	tag  string
	data []byte
	sum  uint32
}

// Font is an assembled TrueType font and the tables it was built from.
type Font struct {
	tables []table
	data   []byte
}

// Bytes returns the TrueType file.
func (f *Font) Bytes() []byte {
	return f.data
}

// BuildTrueType lays out glyphs as a TrueType font. Glyph 0 is an empty
// .notdef; the others keep their order.
func BuildTrueType(glyphs []*Glyph, info Info, m Metrics) (*Font, error) {
	if len(glyphs)+1 > math.MaxUint16 {
		return nil, fmt.Errorf("too many glyphs: %d", len(glyphs))
	}
	all := append([]*Glyph{{Name: ".notdef", Advance: m.UnitsPerEm / 2}}, glyphs...)

	glyf, loca, err := buildGlyf(all)
	if err != nil {
		return nil, err
	}
	stats := measure(all)

	name, err := buildName(info)
	if err != nil {
		return nil, err
	}
	tables := []table{
		{tag: "OS/2", data: buildOS2(stats, info, m)},
		{tag: "cmap", data: buildCmap(all)},
		{tag: "glyf", data: glyf},
		{tag: "head", data: buildHead(stats, info, m)},
		{tag: "hhea", data: buildHhea(len(all), stats, m)},
		{tag: "hmtx", data: buildHmtx(all)},
		{tag: "loca", data: loca},
		{tag: "maxp", data: buildMaxp(len(all), stats)},
		{tag: "name", data: name},
		{tag: "post", data: buildPost(m)},
	}
	for i := range tables {
		tables[i].sum = checksum(tables[i].data)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })

	data := assembleSFNT(tables)
	adjustment := checksumMagic - checksum(data)
	for i := range tables {
		if tables[i].tag == "head" {
			binary.BigEndian.PutUint32(tables[i].data[checksumAdjOffset:], adjustment)
		}
	}

	return &Font{tables: tables, data: assembleSFNT(tables)}, nil
}

// assembleSFNT writes the offset table, the table directory and the 4-byte
// aligned table data.
func assembleSFNT(tables []table) []byte {
	n := len(tables)
	searchRange, entrySelector, rangeShift := searchParams(n, sfntDirEntrySize)

	var buf bytes.Buffer
	be := binary.BigEndian
	_ = binary.Write(&buf, be, uint32(sfntVersionTrueType))
	_ = binary.Write(&buf, be, []uint16{uint16(n), searchRange, entrySelector, rangeShift})

	offset := sfntHeaderSize + sfntDirEntrySize*n
	for _, t := range tables {
		buf.WriteString(t.tag)
		_ = binary.Write(&buf, be, []uint32{t.sum, uint32(offset), uint32(len(t.data))})
		offset += padded(len(t.data))
	}
	for _, t := range tables {
		buf.Write(t.data)
		buf.Write(make([]byte, padded(len(t.data))-len(t.data)))
	}

	return buf.Bytes()
}

// sfntSize is the size of the TrueType file assembled from tables.
func sfntSize(tables []table) int {
	size := sfntHeaderSize + sfntDirEntrySize*len(tables)
	for _, t := range tables {
		size += padded(len(t.data))
	}

	return size
}

type fontStats struct {
	xMin, yMin, xMax, yMax int
	minLSB, minRSB         int
	maxExtent, maxAdvance  int
	avgAdvance             int
	maxPoints, maxContours int
	firstChar, lastChar    rune
}

func measure(glyphs []*Glyph) fontStats {
	var s fontStats
	first := true
	total := 0
	counted := 0
	for _, g := range glyphs {
		s.maxAdvance = max(s.maxAdvance, g.Advance)
		if g.Advance > 0 {
			total += g.Advance
			counted++
		}
		s.maxPoints = max(s.maxPoints, g.NumPoints())
		s.maxContours = max(s.maxContours, len(g.Contours))
		if g.Codepoint != 0 {
			if s.firstChar == 0 || g.Codepoint < s.firstChar {
				s.firstChar = g.Codepoint
			}
			s.lastChar = max(s.lastChar, g.Codepoint)
		}

		xMin, yMin, xMax, yMax, ok := g.Bounds()
		if !ok {
			continue
		}
		if first {
			s.xMin, s.yMin, s.xMax, s.yMax = xMin, yMin, xMax, yMax
			s.minLSB, s.minRSB, s.maxExtent = xMin, g.Advance-xMax, xMax
			first = false
			continue
		}
		s.xMin, s.yMin = min(s.xMin, xMin), min(s.yMin, yMin)
		s.xMax, s.yMax = max(s.xMax, xMax), max(s.yMax, yMax)
		s.minLSB = min(s.minLSB, xMin)
		s.minRSB = min(s.minRSB, g.Advance-xMax)
		s.maxExtent = max(s.maxExtent, xMax)
	}
	if counted > 0 {
		s.avgAdvance = total / counted
	}

	return s
}

// buildGlyf encodes every glyph as a simple glyph and returns the glyf table
// together with its long-format loca table.
func buildGlyf(glyphs []*Glyph) ([]byte, []byte, error) {
	var glyf, loca bytes.Buffer
	be := binary.BigEndian
	for _, g := range glyphs {
		_ = binary.Write(&loca, be, uint32(glyf.Len()))
		data, err := encodeGlyph(g)
		if err != nil {
			return nil, nil, fmt.Errorf("glyph %q: %w", g.Name, err)
		}
		glyf.Write(data)
	}
	_ = binary.Write(&loca, be, uint32(glyf.Len()))

	return glyf.Bytes(), loca.Bytes(), nil
}

// Simple glyph flags.
const (
	flagOnCurve = 0x01
	flagXShort  = 0x02
	flagYShort  = 0x04
	flagXSame   = 0x10
	flagYSame   = 0x20
)

func encodeGlyph(g *Glyph) ([]byte, error) {
	xMin, yMin, xMax, yMax, ok := g.Bounds()
	if !ok {
		return nil, nil
	}
	for _, v := range []int{xMin, yMin, xMax, yMax} {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, fmt.Errorf("coordinate %d out of range", v)
		}
	}

	var buf bytes.Buffer
	be := binary.BigEndian
	_ = binary.Write(&buf, be, []int16{int16(len(g.Contours)), int16(xMin), int16(yMin), int16(xMax), int16(yMax)})
	end := -1
	for _, c := range g.Contours {
		end += len(c)
		_ = binary.Write(&buf, be, uint16(end))
	}
	_ = binary.Write(&buf, be, uint16(0)) // no instructions

	var flags, xs, ys []byte
	prevX, prevY := 0, 0
	for _, c := range g.Contours {
		for _, p := range c {
			var flag byte
			if p.On {
				flag |= flagOnCurve
			}
			flag, xs = encodeDelta(flag, p.X-prevX, flagXShort, flagXSame, xs)
			flag, ys = encodeDelta(flag, p.Y-prevY, flagYShort, flagYSame, ys)
			flags = append(flags, flag)
			prevX, prevY = p.X, p.Y
		}
	}
	buf.Write(flags)
	buf.Write(xs)
	buf.Write(ys)
	buf.Write(make([]byte, padded(buf.Len())-buf.Len()))

	return buf.Bytes(), nil
}

// encodeDelta picks the shortest representation of one coordinate delta.
func encodeDelta(flag byte, delta int, short, same byte, out []byte) (byte, []byte) {
	switch {
	case delta == 0:
		return flag | same, out
	case delta > 0 && delta < 256:
		return flag | short | same, append(out, byte(delta))
	case delta < 0 && delta > -256:
		return flag | short, append(out, byte(-delta))
	default:
		return flag, binary.BigEndian.AppendUint16(out, uint16(int16(delta)))
	}
}

func buildHead(s fontStats, info Info, m Metrics) []byte {
	stamp := longDateTime(info.Date)
	head := struct {
		Version            uint32
		FontRevision       int32
		ChecksumAdjustment uint32
		MagicNumber        uint32
		Flags              uint16
		UnitsPerEm         uint16
		Created            int64
		Modified           int64
		XMin, YMin         int16
		XMax, YMax         int16
		MacStyle           uint16
		LowestRecPPEM      uint16
		FontDirectionHint  int16
		IndexToLocFormat   int16
		GlyphDataFormat    int16
	}{
		Version:           0x00010000,
		FontRevision:      fontRevision(info.Version),
		MagicNumber:       headMagic,
		Flags:             0x000B,
		UnitsPerEm:        uint16(m.UnitsPerEm),
		Created:           stamp,
		Modified:          stamp,
		XMin:              int16(s.xMin),
		YMin:              int16(s.yMin),
		XMax:              int16(s.xMax),
		YMax:              int16(s.yMax),
		LowestRecPPEM:     8,
		FontDirectionHint: 2,
		IndexToLocFormat:  1,
	}

	return encode(head)
}

func buildHhea(numGlyphs int, s fontStats, m Metrics) []byte {
	hhea := struct {
		Version             uint32
		Ascender            int16
		Descender           int16
		LineGap             int16
		AdvanceWidthMax     uint16
		MinLeftSideBearing  int16
		MinRightSideBearing int16
		XMaxExtent          int16
		CaretSlopeRise      int16
		CaretSlopeRun       int16
		CaretOffset         int16
		Reserved            [4]int16
		MetricDataFormat    int16
		NumberOfHMetrics    uint16
	}{
		Version:             0x00010000,
		Ascender:            int16(m.Ascent()),
		Descender:           int16(-m.Descent),
		AdvanceWidthMax:     uint16(s.maxAdvance),
		MinLeftSideBearing:  int16(s.minLSB),
		MinRightSideBearing: int16(s.minRSB),
		XMaxExtent:          int16(s.maxExtent),
		CaretSlopeRise:      1,
		NumberOfHMetrics:    uint16(numGlyphs),
	}

	return encode(hhea)
}

func buildHmtx(glyphs []*Glyph) []byte {
	out := make([]byte, 0, 4*len(glyphs))
	for _, g := range glyphs {
		lsb, _, _, _, _ := g.Bounds()
		out = binary.BigEndian.AppendUint16(out, uint16(g.Advance))
		out = binary.BigEndian.AppendUint16(out, uint16(int16(lsb)))
	}

	return out
}

func buildMaxp(numGlyphs int, s fontStats) []byte {
	maxp := struct {
		Version               uint32
		NumGlyphs             uint16
		MaxPoints             uint16
		MaxContours           uint16
		MaxCompositePoints    uint16
		MaxCompositeContours  uint16
		MaxZones              uint16
		MaxTwilightPoints     uint16
		MaxStorage            uint16
		MaxFunctionDefs       uint16
		MaxInstructionDefs    uint16
		MaxStackElements      uint16
		MaxSizeOfInstructions uint16
		MaxComponentElements  uint16
		MaxComponentDepth     uint16
	}{
		Version:     0x00010000,
		NumGlyphs:   uint16(numGlyphs),
		MaxPoints:   uint16(s.maxPoints),
		MaxContours: uint16(s.maxContours),
		MaxZones:    2,
	}

	return encode(maxp)
}

func buildPost(m Metrics) []byte {
	post := struct {
		Version            uint32
		ItalicAngle        int32
		UnderlinePosition  int16
		UnderlineThickness int16
		IsFixedPitch       uint32
		MinMemType42       uint32
		MaxMemType42       uint32
		MinMemType1        uint32
		MaxMemType1        uint32
	}{
		Version:            0x00030000,
		UnderlinePosition:  int16(-m.Descent / 2),
		UnderlineThickness: int16(max(1, m.UnitsPerEm/20)),
	}

	return encode(post)
}

func buildOS2(s fontStats, info Info, m Metrics) []byte {
	first, last := s.firstChar, s.lastChar
	if first > 0xFFFF {
		first = 0xFFFF
	}
	if last > 0xFFFF {
		last = 0xFFFF
	}
	os2 := struct {
		Version             uint16
		XAvgCharWidth       int16
		UsWeightClass       uint16
		UsWidthClass        uint16
		FsType              uint16
		YSubscriptXSize     int16
		YSubscriptYSize     int16
		YSubscriptXOffset   int16
		YSubscriptYOffset   int16
		YSuperscriptXSize   int16
		YSuperscriptYSize   int16
		YSuperscriptXOffset int16
		YSuperscriptYOffset int16
		YStrikeoutSize      int16
		YStrikeoutPosition  int16
		SFamilyClass        int16
		Panose              [10]byte
		UlUnicodeRange      [4]uint32
		AchVendID           [4]byte
		FsSelection         uint16
		UsFirstCharIndex    uint16
		UsLastCharIndex     uint16
		STypoAscender       int16
		STypoDescender      int16
		STypoLineGap        int16
		UsWinAscent         uint16
		UsWinDescent        uint16
		UlCodePageRange     [2]uint32
		SxHeight            int16
		SCapHeight          int16
		UsDefaultChar       uint16
		UsBreakChar         uint16
		UsMaxContext        uint16
	}{
		Version:             4,
		XAvgCharWidth:       int16(s.avgAdvance),
		UsWeightClass:       uint16(info.Weight),
		UsWidthClass:        5,
		YSubscriptXSize:     int16(m.UnitsPerEm * 65 / 100),
		YSubscriptYSize:     int16(m.UnitsPerEm * 60 / 100),
		YSubscriptYOffset:   int16(m.UnitsPerEm * 7 / 100),
		YSuperscriptXSize:   int16(m.UnitsPerEm * 65 / 100),
		YSuperscriptYSize:   int16(m.UnitsPerEm * 60 / 100),
		YSuperscriptYOffset: int16(m.UnitsPerEm * 48 / 100),
		YStrikeoutSize:      int16(max(1, m.UnitsPerEm/20)),
		YStrikeoutPosition:  int16(m.UnitsPerEm * 26 / 100),
		AchVendID:           [4]byte{'I', 'C', 'F', 'G'},
		FsSelection:         0x0040,
		UsFirstCharIndex:    uint16(first),
		UsLastCharIndex:     uint16(last),
		STypoAscender:       int16(m.Ascent()),
		STypoDescender:      int16(-m.Descent),
		UsWinAscent:         uint16(max(m.Ascent(), s.yMax)),
		UsWinDescent:        uint16(max(m.Descent, -s.yMin)),
		UlCodePageRange:     [2]uint32{1, 0},
		UsDefaultChar:       0,
		UsBreakChar:         0x20,
		UsMaxContext:        1,
	}
	// Private Use Area, plus the supplementary planes flag when needed.
	os2.UlUnicodeRange[1] = 1 << (60 - 32)
	if s.lastChar > 0xFFFF {
		os2.UlUnicodeRange[1] |= 1 << (57 - 32)
	}

	return encode(os2)
}

// Name IDs written into the name table.
const (
	nameCopyright      = 0
	nameFamily         = 1
	nameSubfamily      = 2
	nameUniqueID       = 3
	nameFullName       = 4
	nameVersion        = 5
	namePostScriptName = 6
)

func buildName(info Info) ([]byte, error) {
	encoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	records := []struct {
		id    uint16
		value string
	}{
		{nameCopyright, "Generated by iconforge"},
		{nameFamily, info.FamilyName},
		{nameSubfamily, "Regular"},
		{nameUniqueID, info.FontName + ":Version " + info.Version},
		{nameFullName, info.FamilyName},
		{nameVersion, "Version " + info.Version},
		{namePostScriptName, postScriptName(info.FontName)},
	}

	var storage bytes.Buffer
	var dir bytes.Buffer
	be := binary.BigEndian
	for _, r := range records {
		encoded, err := encoder.Bytes([]byte(r.value))
		if err != nil {
			return nil, fmt.Errorf("encoding name %d: %w", r.id, err)
		}
		// platform 3 (Windows), encoding 1 (Unicode BMP), language en-US
		_ = binary.Write(&dir, be, []uint16{3, 1, 0x0409, r.id, uint16(len(encoded)), uint16(storage.Len())})
		storage.Write(encoded)
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, be, []uint16{0, uint16(len(records)), uint16(6 + dir.Len())})
	buf.Write(dir.Bytes())
	buf.Write(storage.Bytes())

	return buf.Bytes(), nil
}

// postScriptName keeps the printable ASCII characters a PostScript name allows.
func postScriptName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > 32 && r < 127 && !strings.ContainsRune("[](){}<>/%", r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "icons"
	}
	if b.Len() > 63 {
		return b.String()[:63]
	}

	return b.String()
}

// cmapRange maps the consecutive code points start..end to consecutive
// glyph ids starting at glyph.
type cmapRange struct {
	start, end rune
	glyph      int
}

func cmapRanges(glyphs []*Glyph) []cmapRange {
	type mapping struct {
		cp    rune
		glyph int
	}
	var mappings []mapping
	for id, g := range glyphs {
		if g.Codepoint != 0 {
			mappings = append(mappings, mapping{g.Codepoint, id})
		}
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].cp < mappings[j].cp })

	var ranges []cmapRange
	for _, mp := range mappings {
		if n := len(ranges); n > 0 {
			last := &ranges[n-1]
			if mp.cp == last.end+1 && mp.glyph == last.glyph+int(mp.cp-last.start) {
				last.end = mp.cp
				continue
			}
		}
		ranges = append(ranges, cmapRange{mp.cp, mp.cp, mp.glyph})
	}

	return ranges
}

// buildCmap writes a format 4 subtable for the BMP and a format 12 subtable
// for the full range, referenced from both the Unicode and Windows platforms.
func buildCmap(glyphs []*Glyph) []byte {
	ranges := cmapRanges(glyphs)
	format4 := buildCmap4(ranges)
	format12 := buildCmap12(ranges)

	const headerSize = 4 + 4*8
	off4 := uint32(headerSize)
	off12 := off4 + uint32(len(format4))

	var buf bytes.Buffer
	be := binary.BigEndian
	_ = binary.Write(&buf, be, []uint16{0, 4})
	for _, rec := range []struct {
		platform, encoding uint16
		offset             uint32
	}{
		{0, 3, off4},
		{0, 4, off12},
		{3, 1, off4},
		{3, 10, off12},
	} {
		_ = binary.Write(&buf, be, []uint16{rec.platform, rec.encoding})
		_ = binary.Write(&buf, be, rec.offset)
	}
	buf.Write(format4)
	buf.Write(format12)

	return buf.Bytes()
}

func buildCmap4(ranges []cmapRange) []byte {
	var segs []cmapRange
	for _, r := range ranges {
		if r.start > 0xFFFE {
			break
		}
		if r.end > 0xFFFE {
			r.end = 0xFFFE
		}
		segs = append(segs, r)
	}
	segs = append(segs, cmapRange{0xFFFF, 0xFFFF, 0})

	n := len(segs)
	searchRange, entrySelector, rangeShift := searchParams(n, 2)
	length := 16 + 8*n

	be := binary.BigEndian
	out := make([]byte, 0, length)
	for _, v := range []uint16{4, uint16(length), 0, uint16(2 * n), searchRange, entrySelector, rangeShift} {
		out = be.AppendUint16(out, v)
	}
	for _, s := range segs {
		out = be.AppendUint16(out, uint16(s.end))
	}
	out = be.AppendUint16(out, 0)
	for _, s := range segs {
		out = be.AppendUint16(out, uint16(s.start))
	}
	for _, s := range segs {
		// idDelta is applied modulo 65536.
		out = be.AppendUint16(out, uint16(s.glyph-int(s.start)))
	}
	for range segs {
		out = be.AppendUint16(out, 0)
	}

	return out
}

func buildCmap12(ranges []cmapRange) []byte {
	be := binary.BigEndian
	length := 16 + 12*len(ranges)
	out := make([]byte, 0, length)
	out = be.AppendUint16(out, 12)
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, uint32(length))
	out = be.AppendUint32(out, 0)
	out = be.AppendUint32(out, uint32(len(ranges)))
	for _, r := range ranges {
		out = be.AppendUint32(out, uint32(r.start))
		out = be.AppendUint32(out, uint32(r.end))
		out = be.AppendUint32(out, uint32(r.glyph))
	}

	return out
}

// searchParams computes the binary search hints of the sfnt header and the
// cmap format 4 subtable.
func searchParams(n, unit int) (searchRange, entrySelector, rangeShift uint16) {
	if n == 0 {
		return 0, 0, 0
	}
	log := bits.Len(uint(n)) - 1
	pow := 1 << log

	return uint16(pow * unit), uint16(log), uint16(n*unit - pow*unit)
}

func checksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var word [4]byte
		copy(word[:], data[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}

	return sum
}

func padded(n int) int {
	return (n + 3) &^ 3
}

func encode(v interface{}) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, v)

	return buf.Bytes()
}

// fontRevision turns "1.2.3" into the 16.16 fixed number 1.002.
func fontRevision(version string) int32 {
	var major, minor int
	_, _ = fmt.Sscanf(version, "%d.%d", &major, &minor)

	return int32(math.Round((float64(major) + float64(minor)/1000) * 65536))
}

// longDateTime counts seconds since 1904-01-01 UTC.
func longDateTime(t time.Time) int64 {
	epoch := time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	if t.IsZero() {
		return 0
	}

	return int64(t.Sub(epoch) / time.Second)
}
