package register

// BaseAddress is the address of the FLASH register block on STM32WL parts.
const BaseAddress = 0x5800_4000

// Register offsets relative to BaseAddress, per RM0453 section 3.7.
const (
	// OffsetACR is the access control register
	OffsetACR = 0x00

	// OffsetKEYR is the key register used to unlock the control register
	OffsetKEYR = 0x08

	// OffsetSR is the status register seen by CPU1
	OffsetSR = 0x10

	// OffsetCR is the control register seen by CPU1
	OffsetCR = 0x14

	// OffsetC2SR is the status register seen by CPU2
	OffsetC2SR = 0x60

	// OffsetC2CR is the control register seen by CPU2
	OffsetC2CR = 0x64
)

// Status register bits. All error bits and EOP are write-one-to-clear.
// BSY, CFGBSY and PESD are controlled by hardware only.
const (
	// EOP is set when a program or erase operation completed successfully
	EOP Status = 1 << 0

	// OPERR is set when an operation completes unsuccessfully (ERRIE = 1)
	OPERR Status = 1 << 1

	// PROGERR is set when the target double-word was not erased
	PROGERR Status = 1 << 3

	// WRPERR is set when the target belongs to a write-protected area
	WRPERR Status = 1 << 4

	// PGAERR is set when the two words do not land in one aligned double-word
	PGAERR Status = 1 << 5

	// SIZERR is set on byte or half-word accesses while programming
	SIZERR Status = 1 << 6

	// PGSERR is set on a write without PG, or with stale error flags
	PGSERR Status = 1 << 7

	// MISSERR is set when fast programming data arrives too late
	MISSERR Status = 1 << 8

	// FASTERR is set when a fast programming sequence is interrupted
	FASTERR Status = 1 << 9

	// RDERR is set on a read of a PCROP protected area
	RDERR Status = 1 << 14

	// OPTVERR is set when option bytes fail validation (CPU1 view only)
	OPTVERR Status = 1 << 15

	// BSY is set while a flash operation is in progress
	BSY Status = 1 << 16

	// CFGBSY is set while the programming or erase configuration is busy
	CFGBSY Status = 1 << 18

	// PESD is set while program and erase operations are suspended
	PESD Status = 1 << 19
)

// ErrorMask covers every sticky error flag in the status register.
const ErrorMask = OPERR | PROGERR | WRPERR | PGAERR | SIZERR | PGSERR |
	MISSERR | FASTERR | RDERR | OPTVERR

// ProgramErrorMask covers the flags a program operation can raise. OPTVERR
// is excluded: it reports option-byte loading and survives ClearMask.
const ProgramErrorMask = ErrorMask &^ OPTVERR

// ClearMask is written to the status register to clear every error flag and
// EOP in one access. OPTVERR is left alone; it belongs to option-byte loading.
const ClearMask = RDERR | FASTERR | MISSERR | PGSERR | SIZERR | PGAERR |
	WRPERR | PROGERR | OPERR | EOP

// Control register bits.
const (
	// PG enables standard programming
	PG Control = 1 << 0

	// PER enables page erase
	PER Control = 1 << 1

	// MER enables mass erase
	MER Control = 1 << 2

	// STRT starts an erase operation
	STRT Control = 1 << 16

	// FSTPG enables fast programming
	FSTPG Control = 1 << 18

	// EOPIE enables the end-of-operation interrupt (and the EOP flag)
	EOPIE Control = 1 << 24

	// ERRIE enables the error interrupt (and the OPERR flag)
	ERRIE Control = 1 << 25

	// LOCK locks the control register until the key sequence is written
	LOCK Control = 1 << 31
)

// Flash main memory geometry.
const (
	// FlashBase is the address of the first byte of main flash memory
	FlashBase = 0x0800_0000

	// DefaultFlashSize is the main flash size of the 256 KiB parts
	DefaultFlashSize = 256 * 1024

	// PageSize is the erase granularity
	PageSize = 2048

	// DoubleWordSize is the programming granularity
	DoubleWordSize = 8

	// WordSize is the bus access size used for each half of a double-word
	WordSize = 4

	// ErasedWord is the value of an erased word
	ErasedWord = 0xFFFF_FFFF

	// ErasedDoubleWord is the value of an erased double-word
	ErasedDoubleWord = 0xFFFF_FFFF_FFFF_FFFF
)
