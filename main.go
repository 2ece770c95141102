package main

import "github.com/sergev/gimbal/cmd"

func main() {
	cmd.Execute()
}
