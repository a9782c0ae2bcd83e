package main

import "github.com/NESII/goregrid/cmd"

func main() {
	cmd.Execute()
}
