package flash

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-wlflash/register"
)

// Program writes one 64-bit double-word using the standard programming
// sequence:
//  1. Fail with KindBusy if BSY is set
//  2. Fail with KindSuspend if PESD is set
//  3. Clear all sticky error flags
//  4. Set PG
//  5. Write the low word at address, then the high word at address+4
//  6. Wait for the controller to finish and classify the outcome
//  7. Clear PG, whatever happened in 5 and 6
//
// Steps 1 and 2 touch nothing. The address must be double-word aligned;
// a misaligned address is reported by the controller as KindAlign.
// The write-protection of the target page must not change during the call.
//
// The wait has no timeout of its own. Cancel ctx to stop waiting; the
// returned *WaitError does not mean the hardware stopped.
//
// Example:
//
//	err := ctrl.Program(ctx, 0x0800_1000, 0xDEAD_BEEF)
//	if errors.Is(err, flash.ErrBusy) {
//	    // retry later
//	}
func (c *Controller) Program(ctx context.Context, address uint32, value uint64) (err error) {
	if c.released {
		return ErrReleased
	}

	busy, err := c.Busy()
	if err != nil {
		return err
	}
	if busy {
		return &Error{Kind: KindBusy, Address: address, Status: register.BSY}
	}
	suspended, err := c.Suspended()
	if err != nil {
		return err
	}
	if suspended {
		return &Error{Kind: KindSuspend, Address: address, Status: register.PESD}
	}

	if err := c.ClearAllErrors(); err != nil {
		return err
	}
	if err := c.setProgramming(true); err != nil {
		return err
	}
	defer func() {
		if derr := c.setProgramming(false); derr != nil {
			c.logError("clear PG failed", "address", fmt.Sprintf("0x%08X", address), "error", derr)
			if err == nil {
				err = derr
			}
		}
	}()

	if err := c.writeDoubleWord(address, value); err != nil {
		return err
	}

	if err := c.waitForCompletion(ctx, address); err != nil {
		c.logDebug("program failed", "address", fmt.Sprintf("0x%08X", address), "error", err)
		return err
	}

	c.logDebug("programmed",
		"address", fmt.Sprintf("0x%08X", address),
		"value", fmt.Sprintf("0x%016X", value),
	)
	return nil
}

// writeDoubleWord issues the two 32-bit stores. Nothing else may touch flash
// between them.
func (c *Controller) writeDoubleWord(address uint32, value uint64) error {
	if err := c.periph.WriteWord(address, uint32(value)); err != nil {
		return &TransportError{Op: "write word", Address: address, Err: err}
	}
	next := address + register.WordSize
	if err := c.periph.WriteWord(next, uint32(value>>32)); err != nil {
		return &TransportError{Op: "write word", Address: next, Err: err}
	}
	return nil
}

// waitForCompletion polls the status register until the operation is over,
// clears EOP once seen, and classifies the error flags.
func (c *Controller) waitForCompletion(ctx context.Context, address uint32) error {
	var st register.Status
	for {
		select {
		case <-ctx.Done():
			return &WaitError{Address: address, Status: st, Err: ctx.Err()}
		default:
		}

		var err error
		st, err = c.readStatus()
		if err != nil {
			return err
		}

		if c.done(st) {
			break
		}

		if c.config.PollInterval > 0 {
			time.Sleep(c.config.PollInterval)
		}
	}

	if st.EndOfOperation() {
		if err := c.writeRegister("clear EOP", c.config.View.Status, uint32(register.EOP)); err != nil {
			return err
		}
	}

	if c.config.Completion == CompletionEndOfOperation {
		return nil
	}
	if kind, failed := Classify(st); failed {
		return &Error{Kind: kind, Address: address, Status: st}
	}
	return nil
}

func (c *Controller) done(st register.Status) bool {
	if c.config.Completion == CompletionEndOfOperation {
		return st.EndOfOperation()
	}
	return !st.InProgress()
}

// classifyOrder lists the error flags from the most specific cause to the
// least. PGSERR is also raised as a consequence of the others, so it ranks
// below them; OPERR only says that something failed.
var classifyOrder = []struct {
	flag register.Status
	kind ErrorKind
}{
	{register.PGAERR, KindAlign},
	{register.SIZERR, KindSize},
	{register.WRPERR, KindWriteProtect},
	{register.PROGERR, KindProg},
	{register.MISSERR, KindMiss},
	{register.PGSERR, KindSeq},
	{register.OPERR, KindOp},
}

// Classify maps the sticky error flags of a status snapshot to an ErrorKind.
// It returns false when no programming error flag is set. FASTERR and RDERR
// map to KindOp. OPTVERR is ignored; ClearAllErrors leaves it set, so it
// never describes the current operation.
func Classify(st register.Status) (ErrorKind, bool) {
	errs := st.ProgramErrors()
	if errs == 0 {
		return 0, false
	}
	for _, c := range classifyOrder {
		if errs&c.flag != 0 {
			return c.kind, true
		}
	}
	return KindOp, true
}
