package main

import "github.com/g-fabiani/blog/cmd"

func main() {
	cmd.Execute()
}
