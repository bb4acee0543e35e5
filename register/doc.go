// Package register describes the STM32WL flash controller registers the
// programming driver reads and writes: register offsets, status and control
// bit masks, the per-core register views and the flash memory geometry.
//
// # Register Views
//
// Dual-core parts expose two copies of the status and control registers, one
// per core. A view is chosen once when a controller handle is built:
//
//	ctrl, err := flash.New(periph, flash.WithView(register.CPU2))
//
// # Status Snapshots
//
// Status wraps one read of the status register:
//
//	st := register.Status(raw)
//	if st.Busy() || st.Suspended() {
//	    // not allowed to program now
//	}
//	fmt.Println(st) // 0x00000021 [EOP PGAERR]
package register
