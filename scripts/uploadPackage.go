package main

import (
	"log"
	"os"

	"github.com/go-resty/resty/v2"
)

// Uploads a SCORM zip through the running API. Usage:
//
//	go run scripts/uploadPackage.go <zip-file> <api-url> <jwt-token>
func main() {
	if len(os.Args) < 4 {
		log.Fatal("Usage: uploadPackage <zip-file> <api-url> <jwt-token>")
	}
	zipPath := os.Args[1]
	apiURL := os.Args[2]
	token := os.Args[3]

	if _, err := os.Stat(zipPath); err != nil {
		log.Fatalf("Cannot read package file: %v", err)
	}

	client := resty.New()
	resp, err := client.R().
		SetAuthToken(token).
		SetFile("file", zipPath).
		Post(apiURL + "/lms/scorm/packages/")
	if err != nil {
		log.Fatalf("Upload failed: %v", err)
	}

	log.Printf("Status: %s", resp.Status())
	log.Printf("Response: %s", resp.String())
}
