package main

import (
	"os"

	"github.com/pinn-product-builder/pinnbai-sub001/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
