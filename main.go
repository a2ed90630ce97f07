package main

import "github.com/MateoRodr13/qa-test-generator/cmd"

func main() {
	cmd.Execute()
}
