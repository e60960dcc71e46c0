package main

import "github.com/panelscout/panelscout/cmd"

func main() {
	cmd.Execute()
}
