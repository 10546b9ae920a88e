package main

import "github.com/provenly/resilience/internal/cli"

func main() {
	cli.Execute()
}
