package main

import "github.com/frankwiles/gg/cmd"

func main() {
	cmd.Execute()
}
