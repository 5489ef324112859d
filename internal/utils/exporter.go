package utils

import (
	"fmt"

	"github.com/akshayak12345/Library-Management-System/internal/models"
)

func ExportData(logs []models.AuditLog) error {
	for _, log := range logs {
		//change with actual calls
		fmt.Println(log.Timestamp, log.ID, log.Entity, log.Action)
	}
	return nil
}
