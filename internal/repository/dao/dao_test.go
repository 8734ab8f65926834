package dao

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	testDB      *gorm.DB
	setupOnce   sync.Once
	setupErr    error
	purgeDocker func()
)

// setupTestDB starts a throwaway Postgres container and migrates the schema.
// The container is shared by every test in the package.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	setupOnce.Do(func() {
		pool, err := dockertest.NewPool("")
		if err != nil {
			setupErr = fmt.Errorf("dockertest.NewPool -> %w", err)
			return
		}

		resource, err := pool.Run("postgres", "15-alpine", []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=eventra_test",
		})
		if err != nil {
			setupErr = fmt.Errorf("pool.Run -> %w", err)
			return
		}
		purgeDocker = func() { _ = pool.Purge(resource) }

		dsn := fmt.Sprintf("host=localhost port=%s user=test password=test dbname=eventra_test sslmode=disable",
			resource.GetPort("5432/tcp"))

		err = pool.Retry(func() error {
			db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
			if err != nil {
				return err
			}
			testDB = db
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		})
		if err != nil {
			setupErr = fmt.Errorf("pool.Retry -> %w", err)
			return
		}

		setupErr = InitTables(testDB)
	})

	require.NoError(t, setupErr)
	return testDB
}

func TestMain(m *testing.M) {
	code := m.Run()
	// os.Exit skips deferred calls, so purge first.
	if purgeDocker != nil {
		purgeDocker()
	}
	os.Exit(code)
}

func insertTestUser(t *testing.T, db *gorm.DB, email string) User {
	t.Helper()
	userDAO := NewUserDAO(db)
	user, err := userDAO.Insert(context.Background(), User{
		Email:    email,
		Password: "hashed",
		Name:     "Test User",
		Role:     "attendee",
	})
	require.NoError(t, err)
	return user
}

func testEvent(organizerID uint, date time.Time) Event {
	return Event{
		Title:          "Autumn Meetup",
		Description:    "A meetup",
		Location:       "Paris",
		Date:           date,
		Fee:            1500,
		PaymentMethods: []string{"stripe", "cash"},
		OrganizerID:    organizerID,
	}
}

func TestUserDAO_Insert_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	userDAO := NewUserDAO(db)

	_, err := userDAO.Insert(context.Background(), User{
		Email:    "dupe@example.com",
		Password: "hashed",
		Name:     "First",
		Role:     "organizer",
	})
	require.NoError(t, err)

	_, err = userDAO.Insert(context.Background(), User{
		Email:    "dupe@example.com",
		Password: "hashed",
		Name:     "Second",
		Role:     "attendee",
	})
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestEventDAO_InsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	organizer := insertTestUser(t, db, "organizer1@example.com")
	eventDAO := NewEventDAO(db)

	date := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	created, err := eventDAO.Insert(context.Background(), testEvent(organizer.ID, date))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := eventDAO.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Autumn Meetup", found.Title)
	assert.Equal(t, []string{"stripe", "cash"}, found.PaymentMethods)
	assert.True(t, date.Equal(found.Date.Truncate(time.Second)))

	_, err = eventDAO.FindByID(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventDAO_InsertAttendance_CapacityAndDuplicates(t *testing.T) {
	db := setupTestDB(t)
	organizer := insertTestUser(t, db, "organizer2@example.com")
	first := insertTestUser(t, db, "attendee1@example.com")
	second := insertTestUser(t, db, "attendee2@example.com")
	eventDAO := NewEventDAO(db)

	capacity := 1
	event := testEvent(organizer.ID, time.Now().Add(30*24*time.Hour))
	event.Capacity = &capacity
	created, err := eventDAO.Insert(context.Background(), event)
	require.NoError(t, err)

	_, err = eventDAO.InsertAttendance(context.Background(), created.ID, first.ID)
	require.NoError(t, err)

	_, err = eventDAO.InsertAttendance(context.Background(), created.ID, first.ID)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = eventDAO.InsertAttendance(context.Background(), created.ID, second.ID)
	assert.ErrorIs(t, err, ErrEventFull)
}

func TestEventDAO_AttendanceSummary(t *testing.T) {
	db := setupTestDB(t)
	organizer := insertTestUser(t, db, "organizer3@example.com")
	attendee := insertTestUser(t, db, "attendee3@example.com")
	eventDAO := NewEventDAO(db)

	created, err := eventDAO.Insert(context.Background(), testEvent(organizer.ID, time.Now().Add(30*24*time.Hour)))
	require.NoError(t, err)

	count, hasPaid, err := eventDAO.AttendanceSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, hasPaid)

	attendance, err := eventDAO.InsertAttendance(context.Background(), created.ID, attendee.ID)
	require.NoError(t, err)

	count, hasPaid, err = eventDAO.AttendanceSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, hasPaid)

	payment, err := eventDAO.InsertPayment(context.Background(), Payment{
		AttendanceID:    attendance.ID,
		Method:          "stripe",
		Amount:          1500,
		Status:          "pending",
		StripeSessionID: "cs_test_summary",
	})
	require.NoError(t, err)

	// A pending gateway payment does not lock anything yet.
	_, hasPaid, err = eventDAO.AttendanceSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, hasPaid)

	require.NoError(t, eventDAO.UpdatePaymentStatus(context.Background(), payment.ID, "paid"))

	_, hasPaid, err = eventDAO.AttendanceSummary(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, hasPaid)
}

func TestEventDAO_FindPaymentBySessionID(t *testing.T) {
	db := setupTestDB(t)
	organizer := insertTestUser(t, db, "organizer4@example.com")
	attendee := insertTestUser(t, db, "attendee4@example.com")
	eventDAO := NewEventDAO(db)

	created, err := eventDAO.Insert(context.Background(), testEvent(organizer.ID, time.Now().Add(30*24*time.Hour)))
	require.NoError(t, err)
	attendance, err := eventDAO.InsertAttendance(context.Background(), created.ID, attendee.ID)
	require.NoError(t, err)

	inserted, err := eventDAO.InsertPayment(context.Background(), Payment{
		AttendanceID:    attendance.ID,
		Method:          "stripe",
		Amount:          1500,
		Status:          "pending",
		StripeSessionID: "cs_test_lookup",
	})
	require.NoError(t, err)

	found, err := eventDAO.FindPaymentBySessionID(context.Background(), "cs_test_lookup")
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, found.ID)

	_, err = eventDAO.FindPaymentBySessionID(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestEventDAO_Cancel(t *testing.T) {
	db := setupTestDB(t)
	organizer := insertTestUser(t, db, "organizer5@example.com")
	eventDAO := NewEventDAO(db)

	created, err := eventDAO.Insert(context.Background(), testEvent(organizer.ID, time.Now().Add(30*24*time.Hour)))
	require.NoError(t, err)

	at := time.Now()
	require.NoError(t, eventDAO.Cancel(context.Background(), created.ID, at))

	found, err := eventDAO.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.CanceledAt)

	// A second cancellation finds no cancelable row.
	err = eventDAO.Cancel(context.Background(), created.ID, at)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
