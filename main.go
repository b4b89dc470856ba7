// ABOUTME: Entry point for the einvoice CLI
// ABOUTME: Client for the multi-tenant e-invoicing API and its local dev server

package main

import (
	"fmt"
	"os"

	"github.com/markalston/einvoice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
