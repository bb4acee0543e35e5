// Package hexfile loads firmware images from Intel HEX files.
//
// # File Format
//
// Intel HEX files are line-oriented records:
//
//	:LLAAAATT[DD...]CC
//
// Where:
//   - LL is the data byte count
//   - AAAA is the 16-bit record address
//   - TT is the record type (data, end of file, extended linear address, ...)
//   - DD are the data bytes
//   - CC is the two's-complement checksum
//
// Extended address records are resolved, so every Segment carries a full
// 32-bit address.
//
// # Usage
//
//	img, err := hexfile.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	start, end := img.Bounds()
//	fmt.Printf("image spans 0x%08X-0x%08X\n", start, end)
package hexfile
