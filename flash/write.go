package flash

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/moffa90/go-wlflash/hexfile"
	"github.com/moffa90/go-wlflash/register"
)

// DoubleWord is one programming unit: an aligned address and its value.
type DoubleWord struct {
	Address uint32
	Value   uint64
}

// Erased reports whether the value equals the erase value.
func (d DoubleWord) Erased() bool {
	return d.Value == register.ErasedDoubleWord
}

// Split breaks data starting at address into aligned double-words.
// Bytes of a partial double-word that data does not cover are filled with
// the erase value 0xFF, since the controller only starts programming once a
// full double-word has been written.
func Split(address uint32, data []byte) []DoubleWord {
	if len(data) == 0 {
		return nil
	}

	first := address &^ (register.DoubleWordSize - 1)
	end := uint64(address) + uint64(len(data))
	var out []DoubleWord
	for base := uint64(first); base < end; base += register.DoubleWordSize {
		var value uint64
		for i := uint64(0); i < register.DoubleWordSize; i++ {
			b := byte(0xFF)
			pos := base + i
			if pos >= uint64(address) && pos < end {
				b = data[pos-uint64(address)]
			}
			value |= uint64(b) << (8 * i)
		}
		out = append(out, DoubleWord{Address: uint32(base), Value: value})
	}
	return out
}

// Merge combines double-words that share an address and returns them sorted
// by address. Uncovered bytes hold the erase value 0xFF, so ANDing the
// values keeps every byte that any of them sets.
func Merge(dws []DoubleWord) []DoubleWord {
	if len(dws) == 0 {
		return nil
	}
	sorted := make([]DoubleWord, len(dws))
	copy(sorted, dws)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })

	out := sorted[:1]
	for _, dw := range sorted[1:] {
		last := &out[len(out)-1]
		if dw.Address == last.Address {
			last.Value &= dw.Value
			continue
		}
		out = append(out, dw)
	}
	return out
}

// Write programs data starting at address. The range must be inside the
// flash window and already erased, including the 0xFF padding of a partial
// first or last double-word: two Writes that share a double-word fail with
// KindProg on the second. Double-words made only of erase value bytes are
// skipped and left untouched. Each programmed double-word is read back when
// verification is enabled.
//
// Example:
//
//	err := ctrl.Write(ctx, 0x0801_0000, calibration)
func (c *Controller) Write(ctx context.Context, address uint32, data []byte) error {
	if c.released {
		return ErrReleased
	}
	if len(data) == 0 {
		return nil
	}
	if err := c.checkRange(address, len(data)); err != nil {
		return err
	}
	return c.programDoubleWords(ctx, Split(address, data))
}

// ProgramImage programs every segment of an image. All segments are
// range-checked before anything is written. Segments that share a
// double-word are merged into one program operation.
//
// Example:
//
//	img, _ := hexfile.Parse("firmware.hex")
//	err := ctrl.ProgramImage(ctx, img)
func (c *Controller) ProgramImage(ctx context.Context, img *hexfile.Image) error {
	if c.released {
		return ErrReleased
	}
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	var dws []DoubleWord
	for _, seg := range img.Segments {
		if err := c.checkRange(seg.Address, len(seg.Data)); err != nil {
			return err
		}
		dws = append(dws, Split(seg.Address, seg.Data)...)
	}

	c.logInfo("programming image",
		"segments", len(img.Segments),
		"bytes", img.Size(),
	)
	return c.programDoubleWords(ctx, Merge(dws))
}

func (c *Controller) checkRange(address uint32, length int) error {
	start := uint64(c.config.FlashStart)
	end := start + uint64(c.config.FlashSize)
	if uint64(address) < start || uint64(address)+uint64(length) > end {
		return &RangeError{
			Address: address,
			Length:  length,
			Start:   c.config.FlashStart,
			End:     uint32(end - 1),
		}
	}
	return nil
}

func (c *Controller) programDoubleWords(ctx context.Context, dws []DoubleWord) error {
	startTime := time.Now()

	pending := dws[:0:0]
	for _, dw := range dws {
		if !dw.Erased() {
			pending = append(pending, dw)
		}
	}
	if skipped := len(dws) - len(pending); skipped > 0 {
		c.logDebug("skipping erased double-words", "count", skipped)
	}

	bytesWritten := 0
	for i, dw := range pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if err := c.Program(ctx, dw.Address, dw.Value); err != nil {
			return fmt.Errorf("double-word %d/%d: %w", i+1, len(pending), err)
		}

		if c.config.Verify {
			c.reportProgress(Progress{
				Phase:        PhaseVerifying,
				Address:      dw.Address,
				Current:      i,
				Total:        len(pending),
				Percentage:   percent(i, len(pending)),
				BytesWritten: bytesWritten,
				ElapsedTime:  time.Since(startTime),
			})
			got, err := c.ReadDoubleWord(dw.Address)
			if err != nil {
				return err
			}
			if got != dw.Value {
				return &VerifyError{Address: dw.Address, Expected: dw.Value, Actual: got}
			}
		}

		bytesWritten += register.DoubleWordSize
		c.reportProgress(Progress{
			Phase:        PhaseProgramming,
			Address:      dw.Address,
			Current:      i + 1,
			Total:        len(pending),
			Percentage:   percent(i+1, len(pending)),
			BytesWritten: bytesWritten,
			ElapsedTime:  time.Since(startTime),
		})
	}

	c.reportProgress(Progress{
		Phase:        PhaseComplete,
		Current:      len(pending),
		Total:        len(pending),
		Percentage:   100,
		BytesWritten: bytesWritten,
		ElapsedTime:  time.Since(startTime),
	})

	c.logInfo("write complete",
		"double_words", len(pending),
		"bytes", bytesWritten,
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

// reportProgress calls the progress callback if configured.
func (c *Controller) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}
