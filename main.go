package main

import "tango-chat-app/config"

func main() {
	config.RunServer()
}
