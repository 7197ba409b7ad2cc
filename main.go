package main

import "vid2audio/cmd"

func main() {
	cmd.Execute()
}
