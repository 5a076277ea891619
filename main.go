package main

import "tunex/cmd"

func main() {
	cmd.Execute()
}
