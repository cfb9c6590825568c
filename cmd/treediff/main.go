package main

import "github.com/qri-io/treediff/cmd"

func main() {
	cmd.Execute()
}
