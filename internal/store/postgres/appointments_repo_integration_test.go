package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"appointly/backend/internal/domain"
	"appointly/backend/internal/store"
	"appointly/backend/migrations"
)

// openTestDB creates a throwaway schema and returns a pool whose connections
// all resolve tables in it through the search_path startup parameter.
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	databaseURL := strings.TrimSpace(os.Getenv("APPOINTLY_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("APPOINTLY_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	schema := "appointly_test_" + randomHex(t, 8)
	if _, err := admin.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		_ = Close(admin)
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
		_ = Close(admin)
	})

	u, err := url.Parse(databaseURL)
	if err != nil {
		t.Fatalf("parse database url: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	db, err := Open(ctx, u.String(), PoolConfig{MaxOpenConns: 8, MaxIdleConns: 8})
	if err != nil {
		t.Fatalf("Open schema pool error: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func seedUser(t *testing.T, ctx context.Context, db *bun.DB, name string, provider bool) domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := domain.User{
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.NewInsert().Model(&u).Returning("id").Exec(ctx); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func TestPostgresIntegration_AppointmentLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	customer := seedUser(t, ctx, db, "Carla", false)
	provider := seedUser(t, ctx, db, "Paulo", true)

	users := NewUserRepo(db)
	if _, err := users.FindProvider(ctx, provider.ID); err != nil {
		t.Fatalf("FindProvider(provider) error: %v", err)
	}
	if _, err := users.FindProvider(ctx, customer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("FindProvider(customer) err = %v, want %v", err, store.ErrNotFound)
	}
	if got, err := users.FindByID(ctx, customer.ID); err != nil || got.Name != "Carla" {
		t.Fatalf("FindByID = %+v, %v", got, err)
	}

	repo := NewAppointmentRepo(db)
	slot := time.Date(2030, 1, 10, 13, 0, 0, 0, time.UTC)

	a1, err := repo.Insert(ctx, domain.Appointment{UserID: customer.ID, ProviderID: provider.ID, Date: slot})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if a1.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected generated id")
	}

	if _, err := repo.Insert(ctx, domain.Appointment{UserID: customer.ID, ProviderID: provider.ID, Date: slot}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second Insert err = %v, want %v", err, store.ErrConflict)
	}

	active, err := repo.FindActive(ctx, provider.ID, slot)
	if err != nil {
		t.Fatalf("FindActive error: %v", err)
	}
	if active.ID != a1.ID {
		t.Fatalf("FindActive id = %s, want %s", active.ID, a1.ID)
	}

	loaded, err := repo.FindByID(ctx, a1.ID, true)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if loaded.User == nil || loaded.User.ID != customer.ID {
		t.Fatalf("FindByID user relation = %+v", loaded.User)
	}
	if loaded.Provider == nil || loaded.Provider.ID != provider.ID {
		t.Fatalf("FindByID provider relation = %+v", loaded.Provider)
	}

	rows, err := repo.ListActiveForUser(ctx, customer.ID, 20, 0)
	if err != nil {
		t.Fatalf("ListActiveForUser error: %v", err)
	}
	if len(rows) != 1 || rows[0].Provider == nil || rows[0].Provider.Name != "Paulo" {
		t.Fatalf("ListActiveForUser = %+v", rows)
	}

	canceledAt := time.Date(2030, 1, 9, 10, 0, 0, 0, time.UTC)
	loaded.CanceledAt = &canceledAt
	if _, err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if _, err := repo.FindActive(ctx, provider.ID, slot); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("FindActive after cancel err = %v, want %v", err, store.ErrNotFound)
	}
	rows, err = repo.ListActiveForUser(ctx, customer.ID, 20, 0)
	if err != nil {
		t.Fatalf("ListActiveForUser error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("canceled appointment still listed: %+v", rows)
	}

	// A canceled slot can be booked again.
	if _, err := repo.Insert(ctx, domain.Appointment{UserID: customer.ID, ProviderID: provider.ID, Date: slot}); err != nil {
		t.Fatalf("rebook Insert error: %v", err)
	}

	missing := a1
	missing.ID[0] ^= 0xff
	if _, err := repo.Update(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Update(missing) err = %v, want %v", err, store.ErrNotFound)
	}
	if _, err := repo.FindByID(ctx, missing.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("FindByID(missing) err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestPostgresIntegration_ConcurrentInsertSameSlot(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider := seedUser(t, ctx, db, "Paulo", true)
	const racers = 8
	customers := make([]domain.User, racers)
	for i := range customers {
		customers[i] = seedUser(t, ctx, db, "Customer"+strconv.Itoa(i), false)
	}

	repo := NewAppointmentRepo(db)
	slot := time.Date(2030, 2, 1, 10, 0, 0, 0, time.UTC)

	start := make(chan struct{})
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			<-start
			_, err := repo.Insert(ctx, domain.Appointment{UserID: userID, ProviderID: provider.ID, Date: slot})
			errs <- err
		}(customers[i].ID)
	}
	close(start)
	wg.Wait()
	close(errs)

	won, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, store.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected Insert error: %v", err)
		}
	}
	if won != 1 || conflicts != racers-1 {
		t.Fatalf("won = %d conflicts = %d, want 1 and %d", won, conflicts, racers-1)
	}

	var active int
	err := db.NewSelect().
		Model((*domain.Appointment)(nil)).
		ColumnExpr("count(*)").
		Where("provider_id = ?", provider.ID).
		Where("date = ?", slot).
		Where("canceled_at IS NULL").
		Scan(ctx, &active)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if active != 1 {
		t.Fatalf("active appointments for slot = %d, want 1", active)
	}
}

func TestPostgresIntegration_NotificationsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider := seedUser(t, ctx, db, "Paulo", true)
	repo := NewNotificationRepo(db)

	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, domain.Notification{
			Content:   "n" + strconv.Itoa(i),
			UserID:    provider.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	rows, err := repo.ListForUser(ctx, provider.ID, 2)
	if err != nil {
		t.Fatalf("ListForUser error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Content != "n2" || rows[1].Content != "n1" {
		t.Fatalf("order = %q, %q; want n2, n1", rows[0].Content, rows[1].Content)
	}
	if rows[0].Read {
		t.Fatalf("new notification should be unread")
	}
}

func TestPostgresIntegration_NotificationsTieBreakOnID(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider := seedUser(t, ctx, db, "Paulo", true)
	repo := NewNotificationRepo(db)

	same := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{
		uuid.MustParse("01900000-0000-7000-8000-000000000001"),
		uuid.MustParse("01900000-0000-7000-8000-000000000002"),
		uuid.MustParse("01900000-0000-7000-8000-000000000003"),
	}
	for _, id := range ids {
		_, err := repo.Append(ctx, domain.Notification{ID: id, Content: id.String(), UserID: provider.ID, CreatedAt: same})
		if err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		rows, err := repo.ListForUser(ctx, provider.ID, 20)
		if err != nil {
			t.Fatalf("ListForUser error: %v", err)
		}
		if len(rows) != 3 || rows[0].ID != ids[2] || rows[1].ID != ids[1] || rows[2].ID != ids[0] {
			t.Fatalf("rows not ordered by id desc on equal created_at: %+v", rows)
		}
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

// applyMigrations runs the embedded *.up.sql files in version order.
func applyMigrations(ctx context.Context, exec rawExecutor) error {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(string(b)) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
