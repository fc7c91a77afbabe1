package catalog

import "gorm.io/gorm/clause"

// onConflictUpdate builds the GORM clause for an upsert on the state
// table's primary key.
func onConflictUpdate() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}
}
