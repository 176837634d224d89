package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cloudlab/internal/database"
	"github.com/iliyamo/cloudlab/internal/model"
)

// openTestDB connects to the database named by DATABASE_URL and applies the
// schema. Tests that need it are skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return db
}

func TestEC2FindIgnoresStoredNewlinesPostgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// vcpu and memory are unique so Match sees only this row
	name := "t-" + uuid.NewString()[:8]
	vcpu, memory := uuid.NewString()[:6], uuid.NewString()[:6]
	if _, err := db.ExecContext(ctx,
		"INSERT INTO ec2_instance (instancename, vcpu, memory, linux_price) VALUES ($1, $2, $3, '0.01')",
		name+"\n", vcpu, memory); err != nil {
		t.Fatalf("insert: %v", err)
	}
	t.Cleanup(func() {
		db.ExecContext(context.Background(), "DELETE FROM ec2_instance WHERE vcpu = $1", vcpu)
	})

	catalog, err := NewInstanceRepo(db).For(model.ProviderAWS)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	it, err := catalog.Find(ctx, name, vcpu, memory)
	if err != nil {
		t.Fatalf("Find(%q): %v", name, err)
	}
	if it.Name != name+"\n" {
		t.Fatalf("Name = %q, want the stored value", it.Name)
	}
	if _, err := catalog.Find(ctx, name+"x", vcpu, memory); err != ErrNotFound {
		t.Fatalf("Find(unknown) err = %v, want ErrNotFound", err)
	}

	matches, err := catalog.Match(ctx, vcpu, memory)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Match returned %d rows, want 1", len(matches))
	}
}
