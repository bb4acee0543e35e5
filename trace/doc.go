// Package trace records and reads back peripheral access traces.
//
// A Recorder sits between a flash.Controller and its peripheral and writes
// one CBOR event per register or memory access. Traces make it possible to
// check after the fact that a programming sequence touched the hardware in
// the expected order, for example that PG was cleared after a failed
// double-word.
//
//	rec := trace.NewRecorder(port, file)
//	ctrl, _ := flash.New(rec)
//	...
//	r, _ := trace.Open("program.trace")
//	defer r.Close()
//	for {
//	    ev, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    fmt.Println(ev.Seq, ev.Op, ev.Address, ev.Value)
//	}
package trace
