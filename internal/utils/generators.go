package utils

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	return uuid.NewString()
}

func GenerateQuoteID() string {
	return "qt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func GenerateImpressionID() string {
	return uuid.NewString()
}
