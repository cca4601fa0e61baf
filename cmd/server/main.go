package main

import "social-backend/internal/app"

func main() {
	app.Run()
}
