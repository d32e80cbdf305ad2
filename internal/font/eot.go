package font

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

const (
	eotVersion = 0x00020001
	eotMagic   = 0x504C
	// DEFAULT_CHARSET
	eotCharset = 1
)

// EOT wraps the font in an uncompressed Embedded OpenType container.
func (f *Font) EOT(info Info) ([]byte, error) {
	os2 := f.table("OS/2")
	head := f.table("head")
	if len(os2) < 86 || len(head) < 12 {
		return nil, fmt.Errorf("font is missing OS/2 or head data")
	}

	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	var names [][]byte
	for _, s := range []string{info.FamilyName, "Regular", "Version " + info.Version, info.FamilyName} {
		encoded, err := encoder.Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("encoding name %q: %w", s, err)
		}
		names = append(names, encoded)
	}

	le := binary.LittleEndian
	be := binary.BigEndian
	fontData := f.data

	var body []byte
	body = le.AppendUint32(body, uint32(len(fontData)))
	body = le.AppendUint32(body, eotVersion)
	body = le.AppendUint32(body, 0) // flags
	body = append(body, os2[32:42]...)
	body = append(body, eotCharset)
	body = append(body, 0) // italic
	body = le.AppendUint32(body, uint32(be.Uint16(os2[4:6])))
	body = le.AppendUint16(body, be.Uint16(os2[8:10]))
	body = le.AppendUint16(body, eotMagic)
	for i := 0; i < 4; i++ {
		body = le.AppendUint32(body, be.Uint32(os2[42+4*i:]))
	}
	// ulCodePageRange sits after the typo and win metrics.
	for i := 0; i < 2; i++ {
		body = le.AppendUint32(body, be.Uint32(os2[78+4*i:]))
	}
	body = le.AppendUint32(body, be.Uint32(head[checksumAdjOffset:]))
	body = append(body, make([]byte, 16)...) // reserved
	for _, name := range names {
		body = le.AppendUint16(body, 0) // padding
		body = le.AppendUint16(body, uint16(len(name)))
		body = append(body, name...)
	}
	body = le.AppendUint16(body, 0) // padding
	body = le.AppendUint16(body, 0) // empty root string
	body = append(body, fontData...)

	out := le.AppendUint32(make([]byte, 0, 4+len(body)), uint32(4+len(body)))

	return append(out, body...), nil
}

func (f *Font) table(tag string) []byte {
	for _, t := range f.tables {
		if t.tag == tag {
			return t.data
		}
	}

	return nil
}
