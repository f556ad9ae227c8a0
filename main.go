package main

import "github.com/zinc-sig/sntest/cmd"

func main() {
	cmd.Execute()
}
