package domain

import "time"

type Backup struct {
	Products  []Product         `json:"products"`
	Records   []InventoryRecord `json:"records"`
	Timestamp time.Time         `json:"timestamp"`
}
