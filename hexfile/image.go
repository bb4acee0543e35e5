package hexfile

// Image represents a parsed firmware image: a set of non-overlapping data
// segments sorted by address.
type Image struct {
	// Segments contains the contiguous data blocks to program
	Segments []Segment

	// StartAddress is the entry point record, if the file had one
	StartAddress uint32

	// HasStartAddress reports whether StartAddress was present
	HasStartAddress bool
}

// Segment is a contiguous block of image data.
type Segment struct {
	// Address is the absolute address of the first byte
	Address uint32

	// Data is the block content
	Data []byte
}

// End returns the address one past the last byte of the segment.
func (s Segment) End() uint64 {
	return uint64(s.Address) + uint64(len(s.Data))
}

// Size returns the total number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// Bounds returns the lowest address and one past the highest address
// covered by the image. Both are zero for an empty image.
func (img *Image) Bounds() (start uint32, end uint64) {
	if len(img.Segments) == 0 {
		return 0, 0
	}
	start = img.Segments[0].Address
	for _, s := range img.Segments {
		if s.Address < start {
			start = s.Address
		}
		if e := s.End(); e > end {
			end = e
		}
	}
	return start, end
}
