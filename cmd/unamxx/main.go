// Command unamxx decompiles AMX Mod X plugins (.amxx) into approximate
// Pawn source.
package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

func main() {
	err := newRootCmd().Execute()
	glog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
