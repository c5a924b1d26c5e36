////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// signals.go handles signals received by a running aggregator:
//   - SIGUSR1, which logs the state of the instance
//   - SIGTERM/SIGINT, which shuts the instance down and exits

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	jww "github.com/spf13/jwalterweatherman"
)

// ReceiveSignal calls the provided function every time it receives sig.
func ReceiveSignal(sigFn func(), sig os.Signal) {
	// Buffered so a signal arriving before the receiver is ready is kept
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig)

	go func() {
		for {
			<-c
			jww.INFO.Printf("Received %s signal...\n", sig)
			sigFn()
		}
	}()
}

// ReceiveExitSignal signals a stop chan when it receives
// SIGTERM or SIGINT
func ReceiveExitSignal() chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return c
}
