package main

import "github.com/tracehop/tracehop/cmd"

func main() {
	cmd.Execute()
}
