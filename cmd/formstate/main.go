// Command formstate formats validation failure documents into error trees
// and round-trips values through the serialization codec.
//
//	formstate errors failures.yaml --mode always
//	formstate encode value.json > value.fs.json
//	formstate decode value.fs.json
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
