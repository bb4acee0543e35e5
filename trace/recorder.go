package trace

import (
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/moffa90/go-wlflash/flash"
)

var _ flash.Peripheral = (*Recorder)(nil)

// Recorder is a flash.Peripheral that forwards every access to another
// peripheral and appends a CBOR event for it to a stream.
// It is safe for concurrent use.
type Recorder struct {
	next    flash.Peripheral
	session string
	now     func() time.Time

	mu      sync.Mutex
	encoder *cbor.Encoder
	seq     uint64
	err     error
}

// NewRecorder wraps next and records its accesses to w under a fresh
// session ID.
//
// Example:
//
//	f, _ := os.Create("program.trace")
//	rec := trace.NewRecorder(port, f)
//	ctrl, err := flash.New(rec)
func NewRecorder(next flash.Peripheral, w io.Writer) *Recorder {
	if next == nil {
		panic("peripheral cannot be nil")
	}
	return &Recorder{
		next:    next,
		session: uuid.New().String(),
		now:     time.Now,
		encoder: newEncoder(w),
	}
}

// SessionID returns the ID stamped on every event of this recorder.
func (r *Recorder) SessionID() string {
	return r.session
}

// Err returns the first error encountered while writing events.
// Access results are never affected by recording failures.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) ReadRegister(offset uint32) (uint32, error) {
	v, err := r.next.ReadRegister(offset)
	r.record(OpReadRegister, offset, v, err)
	return v, err
}

func (r *Recorder) WriteRegister(offset uint32, value uint32) error {
	err := r.next.WriteRegister(offset, value)
	r.record(OpWriteRegister, offset, value, err)
	return err
}

func (r *Recorder) ReadWord(address uint32) (uint32, error) {
	v, err := r.next.ReadWord(address)
	r.record(OpReadWord, address, v, err)
	return v, err
}

func (r *Recorder) WriteWord(address uint32, value uint32) error {
	err := r.next.WriteWord(address, value)
	r.record(OpWriteWord, address, value, err)
	return err
}

func (r *Recorder) record(op Op, address, value uint32, accessErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	event := Event{
		Timestamp: r.now(),
		SessionID: r.session,
		Seq:       r.seq,
		Op:        op,
		Address:   address,
		Value:     value,
	}
	if accessErr != nil {
		event.Value = 0
		if op.IsWrite() {
			event.Value = value
		}
		event.Err = accessErr.Error()
	}

	if err := r.encoder.Encode(event); err != nil && r.err == nil {
		r.err = err
	}
}
