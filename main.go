package main

import "github.com/Alturino/dashboard/cmd"

func main() {
	cmd.Start()
}
