package main

import "github.com/canopy-network/amm/cmd/cli"

func main() {
	cli.Execute()
}
