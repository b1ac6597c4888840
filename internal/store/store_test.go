package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/dexlens/dexlens/internal/datasource"
	"github.com/dexlens/dexlens/pkg/models"
)

func testSnapshot() datasource.Snapshot {
	return datasource.Snapshot{
		FetchedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RefPriceUSD: 171.42,
		Records: []models.TokenRecord{
			{
				Chain: "solana", Address: "a1", Symbol: "AAA",
				Price: 0.00004217, PriceChange24h: -3.456, Slippage: 0.2,
				HolderCount: 28413, MarketCap: 1234567,
				DeployedAt: time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC),
			},
			{
				Chain: "solana", Address: "b1", Symbol: "BBB",
				Price: 1.5, Slippage: 0.5, MarketCap: 50,
			},
		},
	}
}

func TestSaveSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	snap := testSnapshot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs(snap.FetchedAt, snap.RefPriceUSD, 2).
		WillReturnResult(sqlmock.NewResult(7, 1))
	prep := mock.ExpectPrepare("INSERT INTO snapshot_tokens")
	prep.ExpectExec().
		WithArgs(int64(7), 1, "solana", "a1", "AAA",
			0.00004217, -3.456, 0.2, int64(28413), float64(1234567),
			snap.Records[0].DeployedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(int64(7), 2, "solana", "b1", "BBB",
			1.5, float64(0), 0.5, int64(0), float64(50),
			nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	archive := NewWithDB(db)
	if err := archive.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveSnapshotRollsBackOnTokenError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	snap := testSnapshot()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO snapshots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep := mock.ExpectPrepare("INSERT INTO snapshot_tokens")
	prep.ExpectExec().WillReturnError(fmt.Errorf("duplicate key"))
	mock.ExpectRollback()

	archive := NewWithDB(db)
	if err := archive.SaveSnapshot(context.Background(), snap); err == nil {
		t.Fatal("expected error from failed token insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLatestSnapshotAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT MAX\\(fetched_at\\) FROM snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(want))

	archive := NewWithDB(db)
	got, err := archive.LatestSnapshotAt(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshotAt: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLatestSnapshotAtEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT MAX\\(fetched_at\\) FROM snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	archive := NewWithDB(db)
	got, err := archive.LatestSnapshotAt(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshotAt: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %v, want zero time for empty archive", got)
	}
}
