package font

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"

	"github.com/andybalholm/brotli"
)

const (
	woffSignature  = 0x774F4646 // wOFF
	woff2Signature = 0x774F4632 // wOF2

	woffHeaderSize   = 44
	woffDirEntrySize = 20
	woff2HeaderSize  = 48
)

// WOFF wraps the font as WOFF 1.0 with every table zlib-compressed, or stored
// as is when compression does not help.
func (f *Font) WOFF() ([]byte, error) {
	type entry struct {
		table
		stored []byte
	}
	entries := make([]entry, len(f.tables))
	for i, t := range f.tables {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(t.data); err != nil {
			return nil, fmt.Errorf("compressing %s: %w", t.tag, err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("compressing %s: %w", t.tag, err)
		}
		stored := buf.Bytes()
		if len(stored) >= len(t.data) {
			stored = t.data
		}
		entries[i] = entry{table: t, stored: stored}
	}

	size := woffHeaderSize + woffDirEntrySize*len(entries)
	offsets := make([]int, len(entries))
	for i, e := range entries {
		offsets[i] = size
		size += padded(len(e.stored))
	}

	be := binary.BigEndian
	out := make([]byte, 0, size)
	out = be.AppendUint32(out, woffSignature)
	out = be.AppendUint32(out, sfntVersionTrueType)
	out = be.AppendUint32(out, uint32(size))
	out = be.AppendUint16(out, uint16(len(entries)))
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, uint32(sfntSize(f.tables)))
	out = be.AppendUint16(out, 1) // major version
	out = be.AppendUint16(out, 0)
	out = append(out, make([]byte, 20)...) // no metadata or private block

	for i, e := range entries {
		out = append(out, e.tag...)
		out = be.AppendUint32(out, uint32(offsets[i]))
		out = be.AppendUint32(out, uint32(len(e.stored)))
		out = be.AppendUint32(out, uint32(len(e.data)))
		out = be.AppendUint32(out, e.sum)
	}
	for _, e := range entries {
		out = append(out, e.stored...)
		out = append(out, make([]byte, padded(len(e.stored))-len(e.stored))...)
	}

	return out, nil
}

// woff2KnownTags lists the tags that have a one-byte index in a WOFF2 table
// directory.
var woff2KnownTags = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

// WOFF2 wraps the font as WOFF 2.0. glyf and loca use the null transform,
// and all tables share one brotli stream.
func (f *Font) WOFF2() ([]byte, error) {
	// loca must directly follow glyf in the table directory.
	order := make([]table, 0, len(f.tables))
	var loca *table
	for i := range f.tables {
		if f.tables[i].tag == "loca" {
			loca = &f.tables[i]
		}
	}
	for _, t := range f.tables {
		if t.tag == "loca" {
			continue
		}
		order = append(order, t)
		if t.tag == "glyf" && loca != nil {
			order = append(order, *loca)
		}
	}

	var dir []byte
	var stream bytes.Buffer
	for _, t := range order {
		dir = append(dir, woff2Flags(t.tag))
		if woff2TagIndex(t.tag) == 63 {
			dir = append(dir, t.tag...)
		}
		dir = appendUIntBase128(dir, uint32(len(t.data)))
		stream.Write(t.data)
	}

	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, brotli.BestCompression)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, fmt.Errorf("compressing font data: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("compressing font data: %w", err)
	}

	size := padded(woff2HeaderSize + len(dir) + compressed.Len())

	be := binary.BigEndian
	out := make([]byte, 0, size)
	out = be.AppendUint32(out, woff2Signature)
	out = be.AppendUint32(out, sfntVersionTrueType)
	out = be.AppendUint32(out, uint32(size))
	out = be.AppendUint16(out, uint16(len(order)))
	out = be.AppendUint16(out, 0)
	out = be.AppendUint32(out, uint32(sfntSize(f.tables)))
	out = be.AppendUint32(out, uint32(compressed.Len()))
	out = be.AppendUint16(out, 1) // major version
	out = be.AppendUint16(out, 0)
	out = append(out, make([]byte, 20)...) // no metadata or private block
	out = append(out, dir...)
	out = append(out, compressed.Bytes()...)
	out = append(out, make([]byte, size-len(out))...)

	return out, nil
}

func woff2TagIndex(tag string) byte {
	for i, known := range woff2KnownTags {
		if known == tag {
			return byte(i)
		}
	}

	return 63
}

// woff2Flags encodes the tag index and the transform version. Version 3 is
// the null transform for glyf and loca; version 0 is the null transform for
// every other table.
func woff2Flags(tag string) byte {
	flags := woff2TagIndex(tag)
	if tag == "glyf" || tag == "loca" {
		flags |= 3 << 6
	}

	return flags
}

// appendUIntBase128 writes v in 7-bit groups, most significant first.
func appendUIntBase128(out []byte, v uint32) []byte {
	var groups [5]byte
	n := 0
	for {
		groups[n] = byte(v & 0x7F)
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		b := groups[i]
		if i > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}

	return out
}
