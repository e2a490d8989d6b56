package main

import "demproc/cmd"

func main() {
	cmd.Execute()
}
