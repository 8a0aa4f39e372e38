package main

import "github.com/ValentinKolb/dCodec/cmd"

func main() {
	cmd.Execute()
}
