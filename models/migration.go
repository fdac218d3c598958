package models

import (
	"log"

	"bitbucket.org/shoppulse/dashboard_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &BusinessSettings{},
		&DailyFinancialSnapshot{},
		&Salary{}, &VatExpense{}, &GeneralExpense{}, &CustomerRefund{},
		&OrderItemShippingCost{},
		&OrderChangeRecord{},
		&StorefrontConnection{}, &SnapshotSyncRun{}, &SnapshotSyncError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
