// Package compileinfoprint is imported by the binaries for the side effect of
// reporting, on stderr, the commit they were built from.
package compileinfoprint

import (
	"fmt"
	"os"

	"github.com/carbocation/tcrsampler/compileinfo"
)

func init() {
	fmt.Fprintln(os.Stderr, compileinfo.Get())
}
