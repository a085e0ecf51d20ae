// Package repo is the persistence layer: GORM repositories over the user,
// RBAC and session-token tables. Invariant enforcement lives in the service
// layer; the repositories only provide lookups, writes and the transaction
// boundaries the service asks for.
package repo

import "gorm.io/gorm"

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
