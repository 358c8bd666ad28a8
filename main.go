package main

import "github.com/taskgate/taskgate/cmd"

func main() {
	cmd.Execute()
}
