//go:build windows

package main

import "os"

// shutdownSignals stop the server gracefully. Windows only delivers Ctrl+C.
var shutdownSignals = []os.Signal{os.Interrupt}
