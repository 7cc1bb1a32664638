//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hostdash/internal/domain/entitlement"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// UserFixture describes a dashboard account row. Zero Totals means no entitlement.
type UserFixture struct {
	Email       string
	Role        string
	PanelUserID int64
	Totals      entitlement.Envelope
	Coins       int64
}

func CreateTestUser(t *testing.T, db DBLike, f UserFixture) uuid.UUID {
	t.Helper()

	if f.Role == "" {
		f.Role = "user"
	}
	if f.PanelUserID == 0 {
		f.PanelUserID = 42
	}
	userID := uuid.New()
	referralCode := "REF" + strings.ToUpper(strings.ReplaceAll(userID.String(), "-", "")[:10])

	_, err := db.Exec(context.Background(), `
		INSERT INTO users (id, email, role, panel_user_id, disk_mb, memory_mb, cpu_percent,
		                   backups, databases, allocations, server_slots, coins, referral_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		userID, f.Email, f.Role, f.PanelUserID,
		f.Totals.DiskMB, f.Totals.MemoryMB, f.Totals.CPUPercent,
		f.Totals.Backups, f.Totals.Databases, f.Totals.Allocations, f.Totals.ServerSlots,
		f.Coins, referralCode)
	require.NoError(t, err)

	return userID
}

// ReferralCodeOf reads the code generated for a fixture user.
func ReferralCodeOf(t *testing.T, db DBLike, userID uuid.UUID) string {
	t.Helper()

	var code string
	err := db.QueryRow(context.Background(), "SELECT referral_code FROM users WHERE id = $1", userID).Scan(&code)
	require.NoError(t, err)
	return code
}

// PlanFixture grants Recurring resources and ServerSlots per purchase.
type PlanFixture struct {
	Name          string
	PriceCents    int64
	LifetimeCents *int64
	Coins         int64
	Recurring     entitlement.Resources
	ServerSlots   int64
}

func CreateTestPlan(t *testing.T, db DBLike, f PlanFixture) uuid.UUID {
	t.Helper()

	planID := uuid.New()
	_, err := db.Exec(context.Background(), `
		INSERT INTO plans (id, name, price_cents, lifetime_cents, coins, memory_mb, disk_mb,
		                   cpu_percent, backups, databases, allocations, server_slots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		planID, f.Name, f.PriceCents, f.LifetimeCents, f.Coins,
		f.Recurring.MemoryMB, f.Recurring.DiskMB, f.Recurring.CPUPercent,
		f.Recurring.Backups, f.Recurring.Databases, f.Recurring.Allocations, f.ServerSlots)
	require.NoError(t, err)

	return planID
}

// CreateTestEgg inserts a game template; requiredPlans gates it behind those plans.
func CreateTestEgg(t *testing.T, db DBLike, name string, panelEggID int64, requiredPlans ...uuid.UUID) uuid.UUID {
	t.Helper()

	eggID := uuid.New()
	ctx := context.Background()
	_, err := db.Exec(ctx, `
		INSERT INTO eggs (id, name, panel_egg_id, panel_nest_id, docker_image, startup, environment)
		VALUES ($1, $2, $3, 1, 'ghcr.io/pterodactyl/yolks:java_17', 'java -jar server.jar', '{"SERVER_JARFILE":"server.jar"}')`,
		eggID, name, panelEggID)
	require.NoError(t, err)

	for _, planID := range requiredPlans {
		_, err := db.Exec(ctx, "INSERT INTO egg_required_plans (egg_id, plan_id) VALUES ($1, $2)", eggID, planID)
		require.NoError(t, err)
	}
	return eggID
}

// CreateTestLocation inserts a node location; a nil serverLimit means unbounded.
func CreateTestLocation(t *testing.T, db DBLike, name string, panelLocationID int64, serverLimit *int64) uuid.UUID {
	t.Helper()

	locationID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO locations (id, name, panel_location_id, server_limit) VALUES ($1, $2, $3, $4)",
		locationID, name, panelLocationID, serverLimit)
	require.NoError(t, err)

	return locationID
}

func CreateTestGiftCode(t *testing.T, db DBLike, code string, coins int64, recurring entitlement.Resources, maxRedemptions int64) uuid.UUID {
	t.Helper()

	giftID := uuid.New()
	_, err := db.Exec(context.Background(), `
		INSERT INTO gift_codes (id, code, coins, memory_mb, disk_mb, cpu_percent, max_redemptions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		giftID, code, coins, recurring.MemoryMB, recurring.DiskMB, recurring.CPUPercent, maxRedemptions)
	require.NoError(t, err)

	return giftID
}

func CreateTestShopItem(t *testing.T, db DBLike, name string, coinCost int64, recurring entitlement.Resources) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	_, err := db.Exec(context.Background(), `
		INSERT INTO shop_items (id, name, coin_cost, memory_mb, disk_mb, cpu_percent)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		itemID, name, coinCost, recurring.MemoryMB, recurring.DiskMB, recurring.CPUPercent)
	require.NoError(t, err)

	return itemID
}

func CreateTestCoupon(t *testing.T, db DBLike, code string, percentOff int64) uuid.UUID {
	t.Helper()

	couponID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO coupons (id, code, percent_off) VALUES ($1, $2, $3)",
		couponID, code, percentOff)
	require.NoError(t, err)

	return couponID
}

// CountRows is a small escape hatch for asserting side effects the API does not expose.
func CountRows(t *testing.T, db DBLike, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

// SeedReferenceData inserts the settings every flow reads.
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES
		    ('currency', 'USD'),
		    ('referral_referrer_coins', '100'),
		    ('referral_referee_coins', '50')
		ON CONFLICT (key) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
