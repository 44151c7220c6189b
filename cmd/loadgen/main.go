package main

import "loadgen/cmd"

func main() {
	cmd.Execute()
}
