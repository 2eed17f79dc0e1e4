package main

import "github.com/Zeenat-Muzaffar/GHURLBot/cmd"

func main() {
	cmd.Execute()
}
