package main

import "FreshCart/server"

func main() {
	s := server.NewServer()
	s.Start("")
}
