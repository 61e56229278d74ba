package main

import "github.com/reelkit/reelcut/internal/cli"

func main() {
	cli.Main()
}
