package hexfile

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

// DefaultLineLength is the number of data bytes per record when writing.
const DefaultLineLength = 16

// Parse parses an Intel HEX file from the given file path.
//
// Example:
//
//	img, err := hexfile.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes in %d segments\n", img.Size(), len(img.Segments))
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses Intel HEX records from any io.Reader.
func ParseReader(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse intel hex: %w", err)
	}

	img := &Image{}
	for _, seg := range mem.GetDataSegments() {
		if len(seg.Data) == 0 {
			continue
		}
		data := make([]byte, len(seg.Data))
		copy(data, seg.Data)
		img.Segments = append(img.Segments, Segment{Address: seg.Address, Data: data})
	}
	img.StartAddress, img.HasStartAddress = mem.GetStartAddress()

	if len(img.Segments) == 0 {
		return nil, fmt.Errorf("no data records found")
	}

	return img, nil
}

// FromBinary builds a single-segment image from raw bytes.
func FromBinary(address uint32, data []byte) *Image {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Image{Segments: []Segment{{Address: address, Data: buf}}}
}

// WriteHex writes the image as Intel HEX records.
func (img *Image) WriteHex(w io.Writer) error {
	mem := gohex.NewMemory()
	for _, s := range img.Segments {
		if err := mem.AddBinary(s.Address, s.Data); err != nil {
			return fmt.Errorf("segment 0x%08X: %w", s.Address, err)
		}
	}
	if img.HasStartAddress {
		mem.SetStartAddress(img.StartAddress)
	}
	return mem.DumpIntelHex(w, DefaultLineLength)
}
