// Package main Shopping Assistant Gateway
//
//	@title			Shopping Assistant Gateway API
//	@version		1.0
//	@description	Conversation gateway for the storefront AI shopping assistant: chat sessions, product context, presets and autocomplete
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/
package main

import (
	"log"

	"github.com/joho/godotenv"

	_ "shopping-assistant/docs" // This imports the docs package to initialize swagger
	"shopping-assistant/internal/server"
)

func main() {
	_ = godotenv.Load()

	log.Println("Starting Shopping Assistant Gateway...")
	srv := server.NewServer()
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
