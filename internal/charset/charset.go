// Package charset converts strings recovered from a plugin's data segment to
// UTF-8. Each AMX cell carries a single byte of text, so only byte-oriented
// encodings are offered.
package charset

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Default is the charset used when none is configured.
const Default = "utf-8"

var byName = map[string]encoding.Encoding{
	"utf-8":        unicode.UTF8,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-5":   charmap.ISO8859_5,
	"koi8-r":       charmap.KOI8R,
	"cp437":        charmap.CodePage437,
	"cp866":        charmap.CodePage866,
}

var aliases = map[string]string{
	"utf8":    "utf-8",
	"cp1250":  "windows-1250",
	"cp1251":  "windows-1251",
	"cp1252":  "windows-1252",
	"latin1":  "iso-8859-1",
	"latin-1": "iso-8859-1",
	"latin2":  "iso-8859-2",
	"koi8r":   "koi8-r",
}

// Decoder converts raw recovered bytes to UTF-8.
type Decoder struct {
	name string
	enc  encoding.Encoding
}

// Lookup returns the decoder for a charset name. Names are case-insensitive;
// "" selects Default.
func Lookup(name string) (*Decoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}
	if canon, ok := aliases[key]; ok {
		key = canon
	}
	enc, ok := byName[key]
	if !ok {
		return nil, fmt.Errorf("charset: unknown charset %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return &Decoder{name: key, enc: enc}, nil
}

// Names lists the canonical charset names.
func Names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (d *Decoder) Name() string { return d.name }

// Decode converts s to UTF-8. Bytes the charset cannot map become U+FFFD.
func (d *Decoder) Decode(s string) string {
	out, _, err := transform.String(d.enc.NewDecoder(), s)
	if err != nil {
		return strings.ToValidUTF8(s, "�")
	}
	return out
}
