package utils

import "github.com/gin-gonic/gin"

func SuccessResponse(message string, data interface{}) gin.H {
	return gin.H{
		"success": true,
		"message": message,
		"data":    data,
	}
}

func ErrorResponse(message string, detail string) gin.H {
	body := gin.H{
		"success": false,
		"message": message,
	}
	if detail != "" {
		body["error"] = detail
	}
	return body
}
