package database

import (
	"fmt"

	"github.com/nfrund/chatgate/internal/domain"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// toRecordID converts a domain id to a SurrealDB record id.
func toRecordID(id domain.UserID) (models.RecordID, error) {
	table, key, ok := id.Split()
	if !ok {
		return models.RecordID{}, fmt.Errorf("malformed record id %q", id)
	}
	return models.NewRecordID(table, key), nil
}

// recordString renders a record id as "table:key".
func recordString(id *models.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%s:%v", id.Table, id.ID)
}
