package leads

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "Jane", "Doe", "+16075551234", "jane@x.com", "13901", `{"homeowner":"yes","variant":"a"}`, "https://x").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	repo := NewPostgresRepository(mock)
	lead, err := repo.Create(context.Background(), &Payload{
		FirstName:   "Jane",
		LastName:    "Doe",
		Phone:       "+16075551234",
		Email:       "jane@x.com",
		Zip:         "13901",
		QuizAnswers: `{"homeowner":"yes","variant":"a"}`,
		PageURL:     "https://x",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if lead.ID == "" {
		t.Error("expected generated lead ID")
	}
	if !lead.CreatedAt.Equal(createdAt) {
		t.Errorf("expected created_at %s, got %s", createdAt, lead.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, first_name").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "phone", "email", "zip", "quiz_answers", "page_url", "created_at"}))

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestPostgresRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "first_name", "last_name", "phone", "email", "zip", "quiz_answers", "page_url", "created_at"}).
		AddRow("id-1", "Jane", "Doe", "+16075551234", "jane@x.com", "13901", "{}", "https://x", time.Now())
	mock.ExpectQuery("SELECT id, first_name").
		WithArgs(50, 0).
		WillReturnRows(rows)

	repo := NewPostgresRepository(mock)
	result, err := repo.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(result) != 1 || result[0].FirstName != "Jane" {
		t.Errorf("unexpected list result: %+v", result)
	}
}
