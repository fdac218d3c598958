package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/config"
	"bitbucket.org/shoppulse/dashboard_backend/finance"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"bitbucket.org/shoppulse/dashboard_backend/storefront"
	"bitbucket.org/shoppulse/dashboard_backend/utils"
	"gorm.io/gorm"
)

// Backfills daily financial snapshots over a date range, one business at a
// time. Each date syncs independently; failures are reported per date and do
// not stop the run.
func main() {
	businessID := flag.String("business-id", "", "Optional: backfill only one business (uuid string). If empty, backfills every connected business.")
	from := flag.String("from", "", "Start date (YYYY-MM-DD). Defaults to 30 days ago.")
	to := flag.String("to", "", "End date (YYYY-MM-DD). Defaults to today.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	models.MigrateTable()

	start, end, err := resolveRange(*from, *to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	var connections []models.StorefrontConnection
	query := db.WithContext(utils.SetSkipTenantScopeInContext(ctx)).
		Where("status = ?", models.ConnectionStatusConnected)
	if strings.TrimSpace(*businessID) != "" {
		query = query.Where("business_id = ?", strings.TrimSpace(*businessID))
	}
	if err := query.Find(&connections).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list connections: %v\n", err)
		os.Exit(1)
	}
	if len(connections) == 0 {
		fmt.Fprintln(os.Stderr, "no connected businesses found to backfill")
		return
	}

	for _, conn := range connections {
		backfillBusiness(ctx, db, conn, start, end)
	}
}

func backfillBusiness(ctx context.Context, db *gorm.DB, conn models.StorefrontConnection, start, end time.Time) {
	bid := conn.BusinessId
	fmt.Printf("Backfilling snapshots business=%s from=%s to=%s\n",
		bid, utils.FormatDate(start), utils.FormatDate(end))

	client, err := storefront.NewClientFromConnection(&conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "business %s: %v\n", bid, err)
		return
	}

	bizCtx := utils.SetBusinessIdInContext(ctx, bid)
	total := 0
	synced := 0
	var failures []string
	utils.EachDay(start, end, func(day time.Time) {
		total++
		if _, err := finance.SyncDay(bizCtx, db, client, bid, day); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", utils.FormatDate(day), err))
			return
		}
		synced++
	})

	fmt.Printf("business %s: synced %d of %d dates\n", bid, synced, total)
	for _, failure := range failures {
		fmt.Fprintf(os.Stderr, "business %s: %s\n", bid, failure)
	}
}

func resolveRange(from, to string) (time.Time, time.Time, error) {
	end := utils.DateOnly(time.Now().UTC())
	if strings.TrimSpace(to) != "" {
		parsed, err := utils.ParseDate(strings.TrimSpace(to))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to date: %w", err)
		}
		end = parsed
	}

	start := end.AddDate(0, 0, -29)
	if strings.TrimSpace(from) != "" {
		parsed, err := utils.ParseDate(strings.TrimSpace(from))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from date: %w", err)
		}
		start = parsed
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("-to date is before -from date")
	}
	return start, end, nil
}
