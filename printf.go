package osal

import (
	"fmt"
	"io"
	"os"
)

// printfWriter is where Printf writes; tests substitute this.
var printfWriter io.Writer = os.Stdout

// Printf formats and writes a message the way the source's OS_printf
// does: format into a fixed BUFFER_SIZE buffer via vsnprintf, truncating
// silently if the formatted message doesn't fit, then write it out.
func Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if len(msg) > BufferSize-1 {
		msg = msg[:BufferSize-1]
	}
	fmt.Fprint(printfWriter, msg)
}
