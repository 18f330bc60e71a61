// Command cssad trains and applies semi-supervised anomaly detectors on CSV
// data.
//
//	cssad train --input train.csv --kappa 0.5 --params 0.5,1,2 --mix 0.5 --out model.json
//	cssad score --model model.json --input test.csv
//	cssad baseline --input train.csv --c 0.1
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
