package main

import "github.com/clintonboys/lit/cmd"

func main() {
	cmd.Execute()
}
