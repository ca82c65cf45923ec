package models

// All returns every model managed by the service, in AutoMigrate order.
func All() []any {
	return []any{
		&Component{},
		&Usage{},
		&Request{},
		&UserInventoryRecord{},
		&Project{},
	}
}
