package main

import "github.com/KaramelBytes/catlens/cmd"

func main() {
	cmd.Execute()
}
