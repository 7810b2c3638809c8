package main

import "stock-count/internal/cli"

func main() {
	cli.Execute()
}
