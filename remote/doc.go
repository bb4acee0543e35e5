// Package remote drives a flash controller over the monitor link.
//
// Client implements flash.Peripheral by turning every register and memory
// access into a protocol frame, so the flash package runs unchanged against
// a target attached over a serial port:
//
//	port, err := serial.Open("/dev/ttyUSB0", &serial.Mode{BaudRate: 115200})
//	if err != nil {
//	    return err
//	}
//	ctrl, err := flash.New(remote.New(port))
//
// Reads that time out or arrive damaged are retried; writes never are.
// Every attempt carries its own sequence byte, and a response to an earlier
// attempt that shows up late is discarded.
//
// Serve is the other end of the link. It answers commands by performing
// them on any flash.Peripheral, which makes it possible to test a Client
// against the simulator over an in-memory pipe:
//
//	host, target := net.Pipe()
//	go remote.Serve(ctx, target, sim.New().Port(register.CPU1))
//	ctrl, err := flash.New(remote.New(host))
package remote
