package loans

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/internal/users"
	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
	"github.com/usxc/classroom-library-backend/pkg/realtime"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []realtime.CopyStatusEvent
	err    error
}

func (p *capturePublisher) PublishCopyStatus(_ context.Context, event realtime.CopyStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) captured() []realtime.CopyStatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.CopyStatusEvent, len(p.events))
	copy(out, p.events)
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:loans_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// sqlite cannot interleave writers; a single connection makes the
	// concurrency tests deterministic instead of lock-dependent.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Book{}, &models.Copy{}, &models.Loan{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB, *capturePublisher) {
	t.Helper()
	db := newTestDB(t)
	usersSvc, err := users.NewService(users.NewRepository(db))
	if err != nil {
		t.Fatalf("users service: %v", err)
	}
	pub := &capturePublisher{}
	logg := logger.New(logger.Options{ServiceName: "loans-test", Output: io.Discard})
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db), usersSvc, pub, nil, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db, pub
}

func seedCopy(t *testing.T, db *gorm.DB, status enums.CopyStatus) uuid.UUID {
	t.Helper()
	book := models.Book{
		Title:  "Seeded " + uuid.NewString()[:8],
		Copies: []models.Copy{{Code: "CP-" + uuid.NewString()[:8], Status: status}},
	}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book.Copies[0].ID
}

func loadCopyStatus(t *testing.T, db *gorm.DB, copyID uuid.UUID) enums.CopyStatus {
	t.Helper()
	var copy models.Copy
	if err := db.First(&copy, "id = ?", copyID).Error; err != nil {
		t.Fatalf("load copy: %v", err)
	}
	return copy.Status
}

func TestCheckoutReturnRoundTrip(t *testing.T) {
	svc, db, pub := newTestService(t)
	ctx := context.Background()
	copyID := seedCopy(t, db, enums.CopyStatusAvailable)

	loan, err := svc.Checkout(ctx, copyID, "user_a")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if loan.CopyID != copyID || loan.UserID != "user_a" {
		t.Fatalf("unexpected loan %+v", loan)
	}
	if !loan.Open() {
		t.Fatal("fresh loan must be open")
	}
	if got := loadCopyStatus(t, db, copyID); got != enums.CopyStatusLoaned {
		t.Fatalf("expected LOANED after checkout, got %s", got)
	}

	returned, err := svc.Return(ctx, loan.ID, "user_a")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.ReturnedAt == nil {
		t.Fatal("returned loan must carry a return timestamp")
	}
	if got := loadCopyStatus(t, db, copyID); got != enums.CopyStatusAvailable {
		t.Fatalf("expected AVAILABLE after return, got %s", got)
	}

	events := pub.captured()
	if len(events) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(events))
	}
	if events[0].CopyID != copyID || events[0].Status != enums.CopyStatusLoaned {
		t.Fatalf("unexpected checkout event %+v", events[0])
	}
	if events[1].CopyID != copyID || events[1].Status != enums.CopyStatusAvailable {
		t.Fatalf("unexpected return event %+v", events[1])
	}
}

func TestCheckoutProvisionsUnknownUser(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	copyID := seedCopy(t, db, enums.CopyStatusAvailable)

	if _, err := svc.Checkout(ctx, copyID, "user_new"); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	var user models.User
	if err := db.First(&user, "id = ?", "user_new").Error; err != nil {
		t.Fatalf("expected user provisioned: %v", err)
	}
	if user.Role != enums.UserRoleStudent {
		t.Fatalf("expected STUDENT role, got %s", user.Role)
	}
}

func TestCheckoutUnknownCopy(t *testing.T) {
	svc, _, pub := newTestService(t)
	_, err := svc.Checkout(context.Background(), uuid.New(), "user_a")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(pub.captured()) != 0 {
		t.Fatal("failed checkout must not broadcast")
	}
}

func TestCheckoutUnavailableCopy(t *testing.T) {
	svc, db, pub := newTestService(t)
	ctx := context.Background()

	for _, status := range []enums.CopyStatus{enums.CopyStatusLoaned, enums.CopyStatusLost, enums.CopyStatusRepair} {
		copyID := seedCopy(t, db, status)
		_, err := svc.Checkout(ctx, copyID, "user_a")
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotAvailable {
			t.Fatalf("status %s: expected NOT_AVAILABLE, got %v", status, err)
		}
		if got := loadCopyStatus(t, db, copyID); got != status {
			t.Fatalf("status %s: failed checkout must not change status, got %s", status, got)
		}
	}
	if len(pub.captured()) != 0 {
		t.Fatal("failed checkouts must not broadcast")
	}
}

func TestReturnRejectsForeignAndClosedLoans(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	copyID := seedCopy(t, db, enums.CopyStatusAvailable)

	loan, err := svc.Checkout(ctx, copyID, "user_a")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// Another student borrowed a different copy and tries user_a's loan id.
	_, err = svc.Return(ctx, loan.ID, "user_b")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidLoan {
		t.Fatalf("expected INVALID_LOAN for foreign loan, got %v", err)
	}
	if got := loadCopyStatus(t, db, copyID); got != enums.CopyStatusLoaned {
		t.Fatalf("rejected return must leave copy LOANED, got %s", got)
	}

	// The owner can still return after the failed attempt.
	if _, err := svc.Return(ctx, loan.ID, "user_a"); err != nil {
		t.Fatalf("owner return: %v", err)
	}

	// A second return of the same loan is rejected the same way as an
	// unknown loan id.
	_, err = svc.Return(ctx, loan.ID, "user_a")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidLoan {
		t.Fatalf("expected INVALID_LOAN for closed loan, got %v", err)
	}
	_, err = svc.Return(ctx, uuid.New(), "user_a")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidLoan {
		t.Fatalf("expected INVALID_LOAN for unknown loan, got %v", err)
	}
}

func TestConcurrentCheckoutSingleWinner(t *testing.T) {
	svc, db, pub := newTestService(t)
	ctx := context.Background()
	copyID := seedCopy(t, db, enums.CopyStatusAvailable)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Checkout(ctx, copyID, "user_a")
		}(i)
	}
	close(start)
	wg.Wait()

	var wins, losses int
	for i, err := range errs {
		if err == nil {
			wins++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotAvailable {
			t.Fatalf("attempt %d: expected NOT_AVAILABLE, got %v", i, err)
		}
		losses++
	}
	if wins != 1 || losses != attempts-1 {
		t.Fatalf("expected exactly one winner, got %d wins / %d losses", wins, losses)
	}

	if got := loadCopyStatus(t, db, copyID); got != enums.CopyStatusLoaned {
		t.Fatalf("expected LOANED, got %s", got)
	}
	var open int64
	if err := db.Model(&models.Loan{}).
		Where("copy_id = ? AND returned_at IS NULL", copyID).
		Count(&open).Error; err != nil {
		t.Fatalf("count open loans: %v", err)
	}
	if open != 1 {
		t.Fatalf("expected exactly one open loan, got %d", open)
	}
	if got := len(pub.captured()); got != 1 {
		t.Fatalf("expected one broadcast, got %d", got)
	}
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	svc, db, pub := newTestService(t)
	ctx := context.Background()
	copyID := seedCopy(t, db, enums.CopyStatusAvailable)
	pub.err = context.DeadlineExceeded

	loan, err := svc.Checkout(ctx, copyID, "user_a")
	if err != nil {
		t.Fatalf("checkout must succeed despite publish failure: %v", err)
	}
	if got := loadCopyStatus(t, db, copyID); got != enums.CopyStatusLoaned {
		t.Fatalf("expected LOANED, got %s", got)
	}
	if _, err := svc.Return(ctx, loan.ID, "user_a"); err != nil {
		t.Fatalf("return must succeed despite publish failure: %v", err)
	}
}

func TestListMyLoans(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	first := seedCopy(t, db, enums.CopyStatusAvailable)
	second := seedCopy(t, db, enums.CopyStatusAvailable)
	third := seedCopy(t, db, enums.CopyStatusAvailable)

	firstLoan, err := svc.Checkout(ctx, first, "user_a")
	if err != nil {
		t.Fatalf("checkout first: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.Checkout(ctx, second, "user_a"); err != nil {
		t.Fatalf("checkout second: %v", err)
	}
	if _, err := svc.Checkout(ctx, third, "user_b"); err != nil {
		t.Fatalf("checkout third: %v", err)
	}
	if _, err := svc.Return(ctx, firstLoan.ID, "user_a"); err != nil {
		t.Fatalf("return first: %v", err)
	}

	loans, err := svc.ListMyLoans(ctx, "user_a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("expected only the open loan, got %d", len(loans))
	}
	if loans[0].CopyID != second {
		t.Fatalf("unexpected loan for copy %s", loans[0].CopyID)
	}
	if loans[0].Copy == nil || loans[0].Copy.Book == nil {
		t.Fatal("expected copy and book preloaded")
	}
}
