package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"

	"potager/internal/infra/persistence/postgres/pgstub"
	"potager/pkg/domain"
)

func openStub(t *testing.T) (*Store, *pgstub.Conn) {
	t.Helper()
	db, conn := pgstub.NewDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesStateTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsEveryBucket(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, err := tx.CreatePlot(domain.Plot{Name: "Planche", Rows: 1, Cols: 4})
		if err != nil {
			return err
		}
		_, err = tx.SetPosition(domain.Position{PlotID: p.ID, Row: 3})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	for _, bucket := range []string{"crops", "cultures", "plots", "positions", "garden", "versions"} {
		if _, ok := conn.Rows[bucket]; !ok {
			t.Fatalf("expected bucket %s persisted", bucket)
		}
	}
	var plots map[string]domain.Plot
	if err := json.Unmarshal(conn.Rows["plots"], &plots); err != nil {
		t.Fatalf("decode plots: %v", err)
	}
	if len(plots) != 1 {
		t.Fatalf("expected one persisted plot, got %d", len(plots))
	}
}

func TestNewStoreHydratesFromSnapshot(t *testing.T) {
	db, conn := pgstub.NewDB()
	conn.Rows["garden"] = []byte(`{"rows":7,"cols":9}`)
	conn.Rows["plots"] = []byte(`{"p1":{"id":"p1","name":"Bac","rows":1,"cols":2,"seq":1,"grid":["🍅,tomato,Tomate",null]}}`)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "postgres://example", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_ = store.View(context.Background(), func(v domain.TransactionView) error {
		if g := v.Garden(); g.Rows != 7 || g.Cols != 9 {
			t.Fatalf("unexpected garden %+v", g)
		}
		p, ok := v.FindPlot("p1")
		if !ok || p.Grid[0] == nil || p.Grid[0].CropName != "Tomate" {
			t.Fatalf("expected legacy cell token decoded, got %+v", p)
		}
		return nil
	})
}

func TestNewStoreErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*pgstub.Conn)
	}{
		{"ping", func(c *pgstub.Conn) { c.FailPing = true }},
		{"query", func(c *pgstub.Conn) { c.FailQuery = true }},
		{"decode", func(c *pgstub.Conn) { c.Rows["versions"] = []byte("{broken") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, conn := pgstub.NewDB()
			tc.setup(conn)
			restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
			defer restore()
			if _, err := NewStore(context.Background(), "", nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPersistFailuresSurface(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*pgstub.Conn)
	}{
		{"begin", func(c *pgstub.Conn) { c.FailBegin = true }},
		{"upsert", func(c *pgstub.Conn) { c.FailBucket = "plots" }},
		{"commit", func(c *pgstub.Conn) { c.FailCommit = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, conn := openStub(t)
			tc.setup(conn)
			_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
				_, err := tx.SetGarden(domain.Garden{Rows: 4, Cols: 4})
				return err
			})
			if err == nil {
				t.Fatalf("expected persist error")
			}
			if _, ok := conn.Rows["garden"]; ok {
				t.Fatalf("failed persist must not commit rows")
			}
		})
	}
}
