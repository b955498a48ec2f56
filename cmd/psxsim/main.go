package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

const usageString = `psxsim drives the GPU driver on a simulated console.

Usage:

	%s <command> [arguments]

The commands are:

	run      render frames in a vsynced loop and print statistics
	script   execute driver commands read from a file or stdin
`

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	log.Default().SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "run":
		runMain(flag.Args())
	case "script":
		scriptMain(flag.Args())
	default:
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
