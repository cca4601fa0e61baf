package utils

import "log"

// LogError logs an error with a short context tag if it's not nil
func LogError(err error, context string) {
	if err != nil {
		log.Printf("Error [%s]: %v", context, err)
	}
}
