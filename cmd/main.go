package main

import "github.com/nakarin/sociochat/cmd/server"

func main() {
	srv := server.NewServer()
	defer srv.Shutdown()
	srv.Run()
}
