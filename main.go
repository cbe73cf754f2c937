package main

import "github.com/KaramelBytes/ticketlens/cmd"

func main() {
	cmd.Execute()
}
