// Package flash drives the standard programming sequence of the STM32WL
// flash controller.
//
// # Overview
//
// Program writes one 64-bit double-word:
//   - Refusing to start while the controller is busy or suspended
//   - Clearing error flags left by earlier operations
//   - Arming PG and writing both 32-bit halves of the double-word
//   - Waiting for the controller and classifying the outcome
//   - Disarming PG on every path
//
// # Basic Usage
//
//	periph := mmio.New(register.BaseAddress, register.FlashBase, register.DefaultFlashSize)
//
//	ctrl, err := flash.New(periph)
//	if err != nil {
//	    return err
//	}
//	defer ctrl.Release()
//
//	err = ctrl.Program(context.Background(), 0x0800_1000, 0xDEAD_BEEF)
//
// # Ownership
//
// A Controller owns its peripheral. New fails with ErrAlreadyOwned while
// another Controller holds the same peripheral; Release hands it back.
// There is no lock around the sequence itself, so a Controller must not be
// shared between goroutines.
//
// On dual-core parts each core binds its own register view once:
//
//	ctrl, err := flash.New(periph, flash.WithView(register.CPU2))
//
// The busy and suspended checks are the only protection against the other
// core starting an operation at the same time.
//
// # Completion
//
// The wait for completion polls the status register without a timeout.
// Pass a context with a deadline to bound it:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
//	defer cancel()
//	err := ctrl.Program(ctx, addr, value)
//
// By default every sticky error flag is decoded before success is reported.
// WithCompletion(CompletionEndOfOperation) only waits for EOP and ignores
// error flags.
//
// # Error Handling
//
// The package provides structured error types:
//   - Error: the controller refused or failed the operation (see ErrorKind)
//   - TransportError: the peripheral-access layer failed
//   - WaitError: the context ended while waiting
//   - VerifyError: read-back differs from the programmed value
//   - RangeError: a block write falls outside the flash window
//
// Match kinds with errors.Is:
//
//	switch {
//	case errors.Is(err, flash.ErrBusy), errors.Is(err, flash.ErrSuspend):
//	    // nothing was written, try again later
//	case errors.Is(err, flash.ErrProg):
//	    // the double-word was not erased
//	}
//
// # Block Writes
//
// Write and ProgramImage split data into double-words, pad partial
// double-words with 0xFF and program them one by one with optional
// read-back:
//
//	img, err := hexfile.Parse("firmware.hex")
//	err = ctrl.ProgramImage(ctx, img)
package flash
