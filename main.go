package main

import "comms-backend/internal/app"

func main() {
	app.Run()
}
