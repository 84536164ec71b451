package main

import (
	"fmt"
	"os"

	"github.com/YuminosukeSato/houseprice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "houseprice:", err)
		os.Exit(1)
	}
}
