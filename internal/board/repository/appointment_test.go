package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/shopboard/shopboard-backend/internal/board/domain"
	"github.com/shopboard/shopboard-backend/internal/board/repository"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	s, err := testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to set up integration suite: %v", err)
	}
	suite = s

	code := m.Run()

	suite.Cleanup(ctx)
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

func newRepo() *repository.AppointmentRepository {
	return repository.NewAppointmentRepository(suite.DB, time.UTC, 120)
}

// seedShop creates a customer and vehicle for appointment fixtures.
func seedShop(t *testing.T, ctx context.Context) (customerID, vehicleID string) {
	t.Helper()
	customer := suite.Fixtures.Customer()
	suite.SeedCustomer(t, ctx, customer)
	vehicle := suite.Fixtures.Vehicle(customer.ID)
	suite.SeedVehicle(t, ctx, vehicle)
	return customer.ID, vehicle.ID
}

func int64ptr(v int64) *int64 { return &v }

func TestGetBoard_GroupsAndOrders(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "board-groups")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	statuses := []string{"scheduled", "in_progress", "ready", "completed", "no_show"}
	for i, status := range statuses {
		appt := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
		appt.Status = status
		appt.Title = "Job " + status
		appt.TotalAmountCents = int64ptr(10000)
		if status == "in_progress" || status == "ready" || status == "completed" {
			checkIn := day.Add(time.Duration(9+i) * time.Hour)
			appt.CheckInAt = &checkIn
		}
		if status == "completed" {
			checkOut := day.Add(time.Duration(11+i) * time.Hour)
			appt.CheckOutAt = &checkOut
		}
		suite.SeedAppointment(t, tenantCtx, appt)
	}
	svcAppt := suite.Fixtures.Appointment(customerID, vehicleID, day, 1)
	svcAppt.Status = "scheduled"
	suite.SeedAppointment(t, tenantCtx, svcAppt)
	suite.SeedService(t, tenantCtx, suite.Fixtures.Service(svcAppt.ID, "Oil change"))
	suite.SeedService(t, tenantCtx, suite.Fixtures.Service(svcAppt.ID, "Brake check"))

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day})
	require.NoError(t, err)

	for _, status := range domain.AllStatuses {
		require.Contains(t, view.Columns, status, "every column must be present")
	}
	assert.Len(t, view.Columns[domain.StatusScheduled].Items, 2)
	assert.Len(t, view.Columns[domain.StatusInProgress].Items, 1)
	assert.Len(t, view.Columns[domain.StatusReady].Items, 1)
	assert.Len(t, view.Columns[domain.StatusCompleted].Items, 1)
	assert.Len(t, view.Columns[domain.StatusNoShow].Items, 1)
	assert.Empty(t, view.Columns[domain.StatusCanceled].Items)
	assert.False(t, view.GeneratedAt.IsZero())

	scheduled := view.Columns[domain.StatusScheduled]
	assert.Equal(t, 2, scheduled.Count)
	assert.Equal(t, int64(10000), scheduled.TotalAmountCents)
	assert.Equal(t, 0, scheduled.Items[0].Position)
	assert.Equal(t, 1, scheduled.Items[1].Position)

	for _, col := range view.Columns {
		for _, card := range col.Items {
			assert.GreaterOrEqual(t, card.Version, int64(1))
		}
	}

	withServices := scheduled.Items[1]
	assert.Equal(t, 2, withServices.ServiceCount)
	assert.Contains(t, withServices.ServicesSummary, "Oil change")
	assert.NotEmpty(t, withServices.CustomerName)
	assert.NotEmpty(t, withServices.VehicleLabel)
}

func TestGetBoard_CarryOverAndCanceled(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "board-carryover")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	yesterday := day.AddDate(0, 0, -1)

	// Scheduled yesterday, checked in today, still in progress.
	carryOver := suite.Fixtures.Appointment(customerID, vehicleID, yesterday, 0)
	carryOver.Status = "in_progress"
	checkIn := day.Add(8 * time.Hour)
	carryOver.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, carryOver)

	// Scheduled yesterday and never touched: not on today's board.
	stale := suite.Fixtures.Appointment(customerID, vehicleID, yesterday, 1)
	suite.SeedAppointment(t, tenantCtx, stale)

	canceled := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	canceled.Status = "canceled"
	suite.SeedAppointment(t, tenantCtx, canceled)

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day})
	require.NoError(t, err)

	require.Len(t, view.Columns[domain.StatusInProgress].Items, 1)
	assert.Equal(t, carryOver.ID, view.Columns[domain.StatusInProgress].Items[0].ID)
	assert.Empty(t, view.Columns[domain.StatusScheduled].Items)
	assert.Empty(t, view.Columns[domain.StatusCanceled].Items)

	withCanceled, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day, IncludeCanceled: true})
	require.NoError(t, err)
	assert.Len(t, withCanceled.Columns[domain.StatusCanceled].Items, 1)
}

func TestGetBoard_EmptyDay(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "board-empty")
	tenantCtx := suite.TenantContext(tenant)
	repo := newRepo()

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{
		Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	for _, status := range domain.AllStatuses {
		col := view.Columns[status]
		require.NotNil(t, col)
		assert.Empty(t, col.Items)
		assert.Zero(t, col.Count)
	}
}

func TestMove_CrossStatusSetsCheckIn(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-checkin")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	appt := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	suite.SeedAppointment(t, tenantCtx, appt)

	res, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              appt.ID,
		NewStatus:       domain.StatusInProgress,
		Position:        0,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusScheduled, res.FromStatus)
	card := res.Card
	assert.Equal(t, domain.StatusInProgress, card.Status)
	assert.Equal(t, int64(2), card.Version)
	require.NotNil(t, card.CheckInAt)
	assert.WithinDuration(t, time.Now(), *card.CheckInAt, time.Minute)
}

func TestMove_SameStatusReposition(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-reposition")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 3)
	for i := 0; i < 3; i++ {
		appt := suite.Fixtures.Appointment(customerID, vehicleID, day, i)
		suite.SeedAppointment(t, tenantCtx, appt)
		ids[i] = appt.ID
	}

	// Move the first card to the end of the lane.
	res, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              ids[0],
		NewStatus:       domain.StatusScheduled,
		Position:        2,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Card.Position)
	assert.Equal(t, int64(2), res.Card.Version)

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day})
	require.NoError(t, err)
	lane := view.Columns[domain.StatusScheduled].Items
	require.Len(t, lane, 3)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, []string{lane[0].ID, lane[1].ID, lane[2].ID})
	for i, c := range lane {
		assert.Equal(t, i, c.Position, "lane must stay contiguous")
	}
}

// todayWindow returns midnight UTC of the current day. Move tests that
// mix seeded cards with freshly stamped check-ins anchor on it so both
// land in the same day lane.
func todayWindow() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestMove_CrossStatusCompactsAndShifts(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-lanes")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := todayWindow()
	scheduled := make([]string, 3)
	for i := 0; i < 3; i++ {
		appt := suite.Fixtures.Appointment(customerID, vehicleID, day, i)
		suite.SeedAppointment(t, tenantCtx, appt)
		scheduled[i] = appt.ID
	}
	inProgress := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	inProgress.Status = "in_progress"
	checkIn := day.Add(8 * time.Hour)
	inProgress.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, inProgress)

	// Move the middle scheduled card to the head of in_progress.
	res, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              scheduled[1],
		NewStatus:       domain.StatusInProgress,
		Position:        0,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Card.Position)

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day})
	require.NoError(t, err)

	src := view.Columns[domain.StatusScheduled].Items
	require.Len(t, src, 2)
	assert.Equal(t, []string{scheduled[0], scheduled[2]}, []string{src[0].ID, src[1].ID})
	assert.Equal(t, 0, src[0].Position)
	assert.Equal(t, 1, src[1].Position)

	dst := view.Columns[domain.StatusInProgress].Items
	require.Len(t, dst, 2)
	assert.Equal(t, scheduled[1], dst[0].ID)
	assert.Equal(t, inProgress.ID, dst[1].ID)
	assert.Equal(t, 1, dst[1].Position)
}

func TestMove_IntoLaneWithCarryOverCard(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-carryover-dest")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := todayWindow()
	yesterday := day.AddDate(0, 0, -1)

	// Scheduled yesterday, checked in today, still being worked on. It
	// occupies today's in_progress lane at position 0.
	carry := suite.Fixtures.Appointment(customerID, vehicleID, yesterday, 0)
	carry.Status = "in_progress"
	checkIn := time.Now().UTC()
	carry.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, carry)

	scheduled := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	suite.SeedAppointment(t, tenantCtx, scheduled)

	res, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              scheduled.ID,
		NewStatus:       domain.StatusInProgress,
		Position:        0,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Card.Position)

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day})
	require.NoError(t, err)

	lane := view.Columns[domain.StatusInProgress].Items
	require.Len(t, lane, 2)
	assert.Equal(t, []string{scheduled.ID, carry.ID}, []string{lane[0].ID, lane[1].ID})
	for i, c := range lane {
		assert.Equal(t, i, c.Position, "carried-over work shares the lane it is shown in")
	}
}

func TestMove_CarryOverCardLeavesCompactedLane(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-carryover-src")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := todayWindow()
	yesterday := day.AddDate(0, 0, -1)
	checkIn := time.Now().UTC()

	carry := suite.Fixtures.Appointment(customerID, vehicleID, yesterday, 0)
	carry.Status = "in_progress"
	carry.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, carry)

	todays := suite.Fixtures.Appointment(customerID, vehicleID, day, 1)
	todays.Status = "in_progress"
	todays.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, todays)

	res, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              carry.ID,
		NewStatus:       domain.StatusReady,
		Position:        0,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Card.Position)

	view, err := repo.GetBoard(tenantCtx, repository.BoardParams{Date: day})
	require.NoError(t, err)

	src := view.Columns[domain.StatusInProgress].Items
	require.Len(t, src, 1)
	assert.Equal(t, todays.ID, src[0].ID)
	assert.Equal(t, 0, src[0].Position, "source lane compacts around the departed card")

	dst := view.Columns[domain.StatusReady].Items
	require.Len(t, dst, 1)
	assert.Equal(t, carry.ID, dst[0].ID)
	assert.Equal(t, 0, dst[0].Position)
}

func TestMove_PositionClampedToLane(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-clamp")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	appt := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	suite.SeedAppointment(t, tenantCtx, appt)

	res, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              appt.ID,
		NewStatus:       domain.StatusInProgress,
		Position:        500,
		ExpectedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Card.Position, "position clamps to destination lane size")
}

func TestMove_VersionMismatchReturnsConflictWithCurrent(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-conflict")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	appt := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	suite.SeedAppointment(t, tenantCtx, appt)

	// First move wins and bumps the version to 2.
	_, err := repo.Move(tenantCtx, repository.MoveParams{
		ID: appt.ID, NewStatus: domain.StatusInProgress, Position: 0, ExpectedVersion: 1,
	})
	require.NoError(t, err)

	// Second client still believes version 1.
	_, err = repo.Move(tenantCtx, repository.MoveParams{
		ID: appt.ID, NewStatus: domain.StatusReady, Position: 0, ExpectedVersion: 1,
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "conflict", appErr.Code)

	current, ok := appErr.Current.(*domain.Card)
	require.True(t, ok, "conflict must carry the current card")
	assert.Equal(t, int64(2), current.Version)
	assert.Equal(t, domain.StatusInProgress, current.Status)
}

func TestMove_InvalidTransitionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-invalid")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	appt := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	appt.Status = "completed"
	checkIn := day.Add(9 * time.Hour)
	checkOut := day.Add(10 * time.Hour)
	appt.CheckInAt = &checkIn
	appt.CheckOutAt = &checkOut
	suite.SeedAppointment(t, tenantCtx, appt)

	_, err := repo.Move(tenantCtx, repository.MoveParams{
		ID: appt.ID, NewStatus: domain.StatusScheduled, Position: 0, ExpectedVersion: 1,
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_transition", appErr.Code)

	card, err := repo.GetCard(tenantCtx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, card.Status)
	assert.Equal(t, int64(1), card.Version, "failed move must not mutate")
}

func TestMove_NotFound(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "move-notfound")
	tenantCtx := suite.TenantContext(tenant)
	repo := newRepo()

	_, err := repo.Move(tenantCtx, repository.MoveParams{
		ID:              "0e8c5f3a-2b1d-4c7e-9f0a-1b2c3d4e5f6a",
		NewStatus:       domain.StatusInProgress,
		Position:        0,
		ExpectedVersion: 1,
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "not_found", appErr.Code)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	tenantA := suite.SetupTenant(t, ctx, "isolation-a")
	tenantB := suite.SetupTenant(t, ctx, "isolation-b")
	ctxA := suite.TenantContext(tenantA)
	ctxB := suite.TenantContext(tenantB)
	customerID, vehicleID := seedShop(t, ctxA)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	appt := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	suite.SeedAppointment(t, ctxA, appt)

	// Tenant B sees an empty board and cannot touch A's appointment.
	view, err := repo.GetBoard(ctxB, repository.BoardParams{Date: day})
	require.NoError(t, err)
	assert.Empty(t, view.Columns[domain.StatusScheduled].Items)

	_, err = repo.GetCard(ctxB, appt.ID)
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "not_found", appErr.Code)

	_, err = repo.Move(ctxB, repository.MoveParams{
		ID: appt.ID, NewStatus: domain.StatusInProgress, Position: 0, ExpectedVersion: 1,
	})
	require.Error(t, err)

	// A still sees it untouched.
	card, err := repo.GetCard(ctxA, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), card.Version)
}

func TestList_PagesAndCursor(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "list-pages")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		appt := suite.Fixtures.Appointment(customerID, vehicleID, day, i)
		suite.SeedAppointment(t, tenantCtx, appt)
		seen[appt.ID] = false
	}

	cards, cursor, err := repo.List(tenantCtx, repository.ListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.NotEmpty(t, cursor)

	// Walk the rest with the cursor.
	total := len(cards)
	for _, c := range cards {
		seen[c.ID] = true
	}
	for cursor != "" {
		cards, cursor, err = repo.List(tenantCtx, repository.ListParams{PageSize: 2, Cursor: cursor})
		require.NoError(t, err)
		total += len(cards)
		for _, c := range cards {
			require.False(t, seen[c.ID], "cursor must not repeat rows")
			seen[c.ID] = true
		}
		if len(cards) < 2 {
			break
		}
	}
	assert.Equal(t, 5, total)
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "list-filters")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ready := suite.Fixtures.Appointment(customerID, vehicleID, day, 0)
	ready.Status = "ready"
	checkIn := day.Add(8 * time.Hour)
	ready.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, ready)

	scheduled := suite.Fixtures.Appointment(customerID, vehicleID, day.AddDate(0, 0, 2), 0)
	suite.SeedAppointment(t, tenantCtx, scheduled)

	status := domain.StatusReady
	cards, _, err := repo.List(tenantCtx, repository.ListParams{Status: &status, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, ready.ID, cards[0].ID)

	from := day
	to := day.AddDate(0, 0, 1)
	cards, _, err = repo.List(tenantCtx, repository.ListParams{From: &from, To: &to, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, ready.ID, cards[0].ID)

	cards, _, err = repo.List(tenantCtx, repository.ListParams{CustomerID: &customerID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestGetStats_Correctness(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "stats-correct")
	tenantCtx := suite.TenantContext(tenant)
	customerID, vehicleID := seedShop(t, tenantCtx)
	repo := newRepo()

	now := time.Now().UTC()
	day := now

	// Two completed today with known unpaid remainders.
	for i := 0; i < 2; i++ {
		appt := suite.Fixtures.Appointment(customerID, vehicleID, day, i)
		appt.Status = "completed"
		start := now.Add(-10 * time.Minute)
		appt.StartTS = &start
		checkIn := now.Add(time.Duration(-6+i) * time.Minute)
		checkOut := now.Add(time.Duration(-2+i) * time.Minute)
		appt.CheckInAt = &checkIn
		appt.CheckOutAt = &checkOut
		appt.TotalAmountCents = int64ptr(10000)
		appt.PaidAmountCents = 7500 // 2500 unpaid each
		suite.SeedAppointment(t, tenantCtx, appt)
	}

	// One car on premises, still being worked on.
	onPrem := suite.Fixtures.Appointment(customerID, vehicleID, day, 2)
	onPrem.Status = "in_progress"
	start := now.Add(-5 * time.Minute)
	onPrem.StartTS = &start
	checkIn := now.Add(-4 * time.Minute)
	onPrem.CheckInAt = &checkIn
	suite.SeedAppointment(t, tenantCtx, onPrem)

	// One scheduled with an unpaid total of 1000.
	scheduled := suite.Fixtures.Appointment(customerID, vehicleID, day, 3)
	startLater := now.Add(5 * time.Minute)
	scheduled.StartTS = &startLater
	scheduled.TotalAmountCents = int64ptr(1000)
	suite.SeedAppointment(t, tenantCtx, scheduled)

	// Voided appointments never count toward unpaid.
	voided := suite.Fixtures.Appointment(customerID, vehicleID, day, 4)
	voidedStart := now.Add(-3 * time.Minute)
	voided.StartTS = &voidedStart
	voided.TotalAmountCents = int64ptr(99999)
	voided.Voided = true
	suite.SeedAppointment(t, tenantCtx, voided)

	stats, err := repo.GetStats(tenantCtx, day)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.JobsToday)
	assert.Equal(t, 1, stats.OnPrem)
	assert.Equal(t, 1, stats.StatusCounts[domain.StatusInProgress])
	assert.Equal(t, 2, stats.StatusCounts[domain.StatusScheduled])
	assert.Equal(t, int64(6000), stats.UnpaidTotalCents)
	require.NotNil(t, stats.AvgCycleMinutes)
	assert.Greater(t, *stats.AvgCycleMinutes, 0.0)
}

func TestGetStats_EmptyDay(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "stats-empty")
	tenantCtx := suite.TenantContext(tenant)
	repo := newRepo()

	stats, err := repo.GetStats(tenantCtx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Zero(t, stats.JobsToday)
	assert.Zero(t, stats.OnPrem)
	assert.Zero(t, stats.UnpaidTotalCents)
	assert.Nil(t, stats.AvgCycleMinutes)
	for _, s := range domain.AllStatuses {
		assert.Zero(t, stats.StatusCounts[s])
	}
}
