// Command tinychain is the node binary: it wires the CLI subcommand
// dispatcher and exits. Grounded on the teacher's intended main.go entry
// point (never actually wired to cli.CommandLine in the snapshot, which
// still contained an unrelated toy Blockchain demo).
package main

import "github.com/kilimba/tinychain/cli"

func main() {
	cmd := cli.CommandLine{}
	cmd.Run()
}
