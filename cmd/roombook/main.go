package main

import "github.com/example/roombook/cmd"

func main() {
	cmd.Execute()
}
