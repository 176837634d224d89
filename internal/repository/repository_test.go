package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iliyamo/cloudlab/internal/model"
)

func newMock(t *testing.T) (*AssignmentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAssignmentRepo(db), mock
}

var assignmentCols = []string{"id", "lab_id", "user_id", "assigned_admin_id", "duration", "status", "instance_id", "launched_at", "stopped_at", "created_at"}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestAssignCreatesPending(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO lab_assignments .* ON CONFLICT \\(user_id, lab_id\\) DO NOTHING").
		WithArgs("lab-1", "user-1", "admin-1", 7).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("as-1", "lab-1", "user-1", "admin-1", 7, "pending", nil, nil, nil, created))

	got, err := repo.Assign(context.Background(), NewAssignment{
		LabID: "lab-1", UserID: strPtr("user-1"), AdminID: strPtr("admin-1"), Duration: intPtr(7),
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	want := model.Assignment{
		ID: "as-1", LabID: "lab-1", UserID: "user-1", AssignedAdminID: "admin-1",
		Duration: 7, Status: model.StatusPending, CreatedAt: created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("assignment mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignDuplicateIsConflict(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO lab_assignments").
		WillReturnRows(sqlmock.NewRows(assignmentCols))

	_, err := repo.Assign(context.Background(), NewAssignment{
		LabID: "lab-1", UserID: strPtr("user-1"), AdminID: strPtr("admin-1"), Duration: intPtr(7),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestAssignRejectedValues(t *testing.T) {
	cases := []struct {
		name string
		in   NewAssignment
		code string
	}{
		{"zero duration", NewAssignment{LabID: "lab-1", UserID: strPtr("user-1"), AdminID: strPtr("admin-1"), Duration: intPtr(0)}, "23514"},
		{"missing user", NewAssignment{LabID: "lab-1", AdminID: strPtr("admin-1"), Duration: intPtr(3)}, "23502"},
		{"unknown lab", NewAssignment{LabID: "lab-x", UserID: strPtr("user-1"), AdminID: strPtr("admin-1"), Duration: intPtr(3)}, "23503"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMock(t)
			mock.ExpectQuery("INSERT INTO lab_assignments").
				WillReturnError(&pgconn.PgError{Code: tc.code})
			if _, err := repo.Assign(context.Background(), tc.in); !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("err = %v, want ErrInvalidReference", err)
			}
		})
	}
}

func TestTransitionRequiresExpectedStatus(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("UPDATE lab_assignments").
		WithArgs("as-1", model.StatusActive, model.StatusStopped, nil).
		WillReturnRows(sqlmock.NewRows(assignmentCols))

	_, err := repo.Transition(context.Background(), "as-1", model.StatusActive, model.StatusStopped, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestListByUserReturnsEveryStatus(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("FROM lab_assignments WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow("as-1", "lab-1", "user-1", "admin-1", 3, "pending", nil, nil, nil, now).
			AddRow("as-2", "lab-2", "user-1", "admin-1", 3, "expired", "i-123", now, now, now))

	got, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[1].InstanceID == nil || *got[1].InstanceID != "i-123" {
		t.Fatalf("unexpected assignments: %+v", got)
	}
}

func TestConfigurationCreateAppends(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewConfigurationRepo(db)

	details := json.RawMessage(`{"instance":"t3.micro","users":5,"days":2,"cost":12.5}`)
	cols := []string{"config_id", "lab_id", "admin_id", "config_details", "created_at"}
	now := time.Now()
	for _, id := range []string{"cfg-1", "cfg-2"} {
		mock.ExpectQuery("INSERT INTO lab_configurations").
			WithArgs("lab-1", "admin-1", string(details)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(id, "lab-1", "admin-1", []byte(details), now))
	}

	first, err := repo.Create(context.Background(), strPtr("lab-1"), strPtr("admin-1"), details)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := repo.Create(context.Background(), strPtr("lab-1"), strPtr("admin-1"), details)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.ConfigID == second.ConfigID {
		t.Fatalf("expected distinct rows, both are %s", first.ConfigID)
	}
	if string(second.ConfigDetails) != string(details) {
		t.Fatalf("details = %s", second.ConfigDetails)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfigurationMissingDetailsRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("INSERT INTO lab_configurations").
		WithArgs("lab-1", "admin-1", nil).
		WillReturnError(&pgconn.PgError{Code: "23502"})

	_, err = NewConfigurationRepo(db).Create(context.Background(), strPtr("lab-1"), strPtr("admin-1"), nil)
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
}

func TestInstanceCatalogs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewInstanceRepo(db)

	if _, err := repo.For(model.Provider("gcp")); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("For(gcp) err = %v", err)
	}

	ec2, err := repo.For(model.ProviderAWS)
	if err != nil {
		t.Fatalf("For(aws): %v", err)
	}
	mock.ExpectQuery("FROM ec2_instance WHERE vcpu = \\$1 AND memory = \\$2").
		WithArgs("2", "4").
		WillReturnRows(sqlmock.NewRows([]string{"instancename", "vcpu", "memory", "storage", "networkperformance", "linux_price", "windows_price"}).
			AddRow("t3.medium", "2", "4", "EBS only", "Up to 5 Gigabit", "0.0416", "0.06").
			AddRow("m5.large\n", "2", "4", "EBS only", "Up to 10 Gigabit", "0.096", "0.188"))
	rows, err := ec2.Match(context.Background(), "2", "4")
	if err != nil || len(rows) != 2 {
		t.Fatalf("Match = %v, %v", rows, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`REPLACE(instancename, E'\n', '') = $1`)).
		WithArgs("m5.large", "2", "4").
		WillReturnRows(sqlmock.NewRows([]string{"instancename", "vcpu", "memory", "storage", "networkperformance", "linux_price", "windows_price"}).
			AddRow("m5.large\n", "2", "4", "EBS only", "Up to 10 Gigabit", "0.096", "0.188"))
	it, err := ec2.Find(context.Background(), "m5.large", "2", "4")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if it.LinuxPrice == nil || *it.LinuxPrice != "0.096" {
		t.Fatalf("unexpected row: %+v", it)
	}

	azure, _ := repo.For(model.ProviderAzure)
	mock.ExpectQuery(regexp.QuoteMeta(`REPLACE(instance, E'\n', '') = $1`)).
		WithArgs("B2s", "2", "4").
		WillReturnRows(sqlmock.NewRows([]string{"instance", "vcpu", "memory", "storage", "linux_price", "windows_price"}))
	if _, err := azure.Find(context.Background(), "B2s", "2", "4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("azure Find err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatsSnapshotSingleTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows([]string{"users", "admins"}).AddRow(12, 2))
	mock.ExpectQuery("FROM labs").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("FROM lab_assignments GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 4).AddRow("active", 1))
	mock.ExpectCommit()

	got, err := NewStatsRepo(db).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := model.Stats{Users: 12, Admins: 2, Labs: 5, Assignments: map[string]int{
		"pending": 4, "active": 1, "stopped": 0, "expired": 0,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada", "ada@example.com", sqlmock.AnyArg(), "user", nil, nil).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = NewUserRepo(db).Create(context.Background(), NewUser{Name: " Ada ", Email: "ADA@example.com ", Password: "secret"}, 4)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectQuery("UPDATE users SET role").WithArgs("missing", "admin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := repo.UpdateRole(context.Background(), "missing", "admin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	mock.ExpectQuery("UPDATE users SET role").WithArgs("not-a-uuid", "admin").
		WillReturnError(&pgconn.PgError{Code: "22P02"})
	if _, err := repo.UpdateRole(context.Background(), "not-a-uuid", "admin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListConfiguredByIsDistinct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"lab_id", "type", "platform", "provider", "os", "cpu", "ram", "storage", "instance", "title", "description", "duration", "created_by", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT l.lab_id")).WithArgs("admin-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("lab-1", "vm", nil, "aws", nil, "2", "4", nil, "t3.medium", "K8s", nil, 3, "admin-1", time.Now()))

	labs, err := NewLabRepo(db).ListConfiguredBy(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("ListConfiguredBy: %v", err)
	}
	if len(labs) != 1 || labs[0].LabID != "lab-1" || labs[0].Platform != nil || *labs[0].Duration != 3 {
		t.Fatalf("labs = %+v", labs)
	}
}

var userCols = []string{"id", "name", "email", "password_hash", "role", "organization", "organization_type", "last_active", "created_at"}

func TestRefreshTokenRotateOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE refresh_tokens SET revoked_at").WithArgs("hash-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u-1"))
	mock.ExpectQuery("FROM users WHERE id").WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Ada", "ada@example.com", "x", "user", nil, nil, nil, time.Now()))
	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs("u-1", "hash-2", exp).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE refresh_tokens SET revoked_at").WithArgs("hash-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	var owner string
	err = repo.Rotate(context.Background(), "hash-1", func(u model.User) (Replacement, error) {
		owner = u.ID
		return Replacement{Hash: "hash-2", Expires: exp}, nil
	})
	if err != nil || owner != "u-1" {
		t.Fatalf("first Rotate = %q, %v", owner, err)
	}
	err = repo.Rotate(context.Background(), "hash-1", func(model.User) (Replacement, error) {
		t.Fatal("replacement minted for a spent token")
		return Replacement{}, nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Rotate err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRotateRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewTokenRepo(db)

	// minting the replacement fails: nothing is written
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE refresh_tokens SET revoked_at").WithArgs("hash-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u-1"))
	mock.ExpectQuery("FROM users WHERE id").WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Ada", "ada@example.com", "x", "user", nil, nil, nil, time.Now()))
	mock.ExpectRollback()
	mintErr := errors.New("sign failed")
	err = repo.Rotate(context.Background(), "hash-1", func(model.User) (Replacement, error) {
		return Replacement{}, mintErr
	})
	if !errors.Is(err, mintErr) {
		t.Fatalf("Rotate err = %v, want %v", err, mintErr)
	}

	// storing the replacement fails
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE refresh_tokens SET revoked_at").WithArgs("hash-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u-1"))
	mock.ExpectQuery("FROM users WHERE id").WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Ada", "ada@example.com", "x", "user", nil, nil, nil, time.Now()))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	err = repo.Rotate(context.Background(), "hash-1", func(model.User) (Replacement, error) {
		return Replacement{Hash: "hash-2", Expires: time.Now().Add(time.Hour)}, nil
	})
	if err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
