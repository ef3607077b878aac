// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/JoeStrout/MS2Prototypes-sub000/runtime"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML runtime configuration file")
	debug := flag.Bool("debug", false, "log GC and VM diagnostics to stderr")
	trace := flag.Bool("trace", false, "log every executed instruction to stderr")
	flag.Parse()

	cfg := runtime.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = runtime.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *debug {
		cfg.Debug = true
	}
	if *trace {
		cfg.Debug = true
		cfg.Trace = true
	}

	rt := runtime.New(cfg)
	if cfg.Debug {
		rt.Errorf = log.New(os.Stderr, "msvm: ", 0).Printf
	}

	args := flag.Args()
	in := os.Stdin
	if len(args) > 0 && args[0] != "-" {
		var err error
		in, err = os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "can't open %q: %s\n", args[0], err)
			os.Exit(1)
		}
	}
	src, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading input: %s\n", err)
		os.Exit(1)
	}

	result, err := rt.Load(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	got, err := rt.RunMain(result, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(rt.ToString(got))
}
