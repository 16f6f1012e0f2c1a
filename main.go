package main

import "shipctl/cmd"

func main() {
	cmd.Execute()
}
