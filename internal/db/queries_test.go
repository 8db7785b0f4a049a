package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// testQueries connects to TEST_DATABASE_URL inside a transaction that is
// rolled back when the test ends.
func testQueries(t *testing.T) (*Queries, context.Context) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	pool, err := NewPool(ctx, url)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tx.Rollback(context.Background()) })
	return New(pool).WithTx(tx), ctx
}

func TestProjectQueries(t *testing.T) {
	q, ctx := testQueries(t)

	u, err := q.CreateUser(ctx, CreateUserParams{ID: "user_test", Email: "a@example.com", Password: "x", DisplayName: "A"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := q.GetUserByEmail(ctx, "a@example.com"); err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}

	p, err := q.CreateProject(ctx, CreateProjectParams{ID: "proj_test", Name: "Hero", OwnerID: u.ID})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := q.AddProjectMember(ctx, AddProjectMemberParams{ProjectID: p.ID, UserID: u.ID, Role: ProjectRoleOwner}); err != nil {
		t.Fatal(err)
	}
	projects, err := q.ListProjectsForUser(ctx, u.ID)
	if err != nil || len(projects) != 1 || projects[0].Name != "Hero" {
		t.Fatalf("ListProjectsForUser = %+v, %v", projects, err)
	}

	for v := int32(1); v <= 2; v++ {
		doc := []byte(`{"version": "1.0", "groups": []}`)
		if _, err := q.CreateSnapshot(ctx, CreateSnapshotParams{ID: "snap_" + string(rune('0'+v)), ProjectID: p.ID, Version: v, Document: doc}); err != nil {
			t.Fatalf("CreateSnapshot %d: %v", v, err)
		}
	}
	snap, err := q.GetLatestSnapshot(ctx, p.ID)
	if err != nil || snap.Version != 2 {
		t.Fatalf("GetLatestSnapshot = %+v, %v", snap, err)
	}

	if err := q.DeleteProject(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := q.GetProject(ctx, p.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("GetProject after delete = %v", err)
	}
}
