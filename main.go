package main

import "sdimage/cmd"

func main() {
	cmd.Execute()
}
