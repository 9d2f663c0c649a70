package main

import "go-price-converter/cli"

func main() {
	cli.Execute()
}
