package main

import "github.com/pfrederiksen/screening-watch/internal/cli"

func main() {
	cli.Execute()
}
