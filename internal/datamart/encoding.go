package datamart

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// Encoding is the character encoding a Datamart endpoint publishes in.
type Encoding int

const (
	// UTF8 bodies are returned untouched.
	UTF8 Encoding = iota
	// UTF8BOM bodies may start with a byte order mark, which is stripped.
	UTF8BOM
	// Latin1 bodies are ISO-8859-1 and are transcoded to UTF-8.
	Latin1
	// Sniff detects the charset from the Content-Type header and the document
	// itself. Used for HTML pages.
	Sniff
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case UTF8BOM:
		return "utf-8-sig"
	case Latin1:
		return "iso-8859-1"
	case Sniff:
		return "sniff"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decode converts body to UTF-8 according to enc.
func decode(body []byte, enc Encoding, contentType string) ([]byte, error) {
	switch enc {
	case UTF8:
		return body, nil
	case UTF8BOM:
		return bytes.TrimPrefix(body, utf8BOM), nil
	case Latin1:
		return charmap.ISO8859_1.NewDecoder().Bytes(body)
	case Sniff:
		r, err := charset.NewReader(bytes.NewReader(body), contentType)
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("unknown encoding %v", enc)
}

// DecodeXML unmarshals an already transcoded document into v. The prolog of
// several feeds still declares ISO-8859-1, so the declared charset is ignored.
func DecodeXML(data []byte, v interface{}) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := d.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDocument, err)
	}
	return nil
}
