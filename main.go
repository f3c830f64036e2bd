// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/NotAShelf/watt/cmd"
)

func main() {
	if os.Getenv("WATT_PROFILE") != "" {
		cpuFile, err := os.Create("cpu.prof")
		if err != nil {
			panic(err)
		}
		defer cpuFile.Close()

		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()

		memFile, err := os.Create("mem.prof")
		if err != nil {
			panic(err)
		}
		defer memFile.Close()
		defer func() {
			if err := pprof.WriteHeapProfile(memFile); err != nil {
				panic(err)
			}
		}()
		defer fmt.Println("profiling data written to cpu.prof and mem.prof")
	}

	cmd.Execute()
}
