package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/labourmarket/internal/database/dbtest"
	"github.com/example/labourmarket/internal/models"
	"github.com/example/labourmarket/internal/notify"
	"github.com/example/labourmarket/internal/repository"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []notify.Job
}

func (d *recordingDispatcher) Dispatch(job notify.Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
}

func (d *recordingDispatcher) sent() []notify.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Job(nil), d.jobs...)
}

type recordingAlerter struct {
	bookings []BookingAlert
	payments []PaymentAlert
}

func (a *recordingAlerter) NotifyNewBooking(b BookingAlert) error {
	a.bookings = append(a.bookings, b)
	return nil
}

func (a *recordingAlerter) NotifyPaymentCaptured(p PaymentAlert) error {
	a.payments = append(a.payments, p)
	return nil
}

type fakeGateway struct {
	requests []OrderRequest
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, req OrderRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.requests = append(g.requests, req)
	return "order_test_1", nil
}

func syncRun(f func()) { f() }

type engine struct {
	db         *gorm.DB
	users      *repository.UserRepo
	labourers  *repository.LabourerRepo
	bookings   *repository.BookingRepo
	dispatcher *recordingDispatcher
	alerts     *recordingAlerter
	svc        *BookingService
}

func newEngine(t *testing.T) *engine {
	db := dbtest.Open(t)
	e := &engine{
		db:         db,
		users:      repository.NewUserRepo(db),
		labourers:  repository.NewLabourerRepo(db),
		bookings:   repository.NewBookingRepo(db),
		dispatcher: &recordingDispatcher{},
		alerts:     &recordingAlerter{},
	}
	e.svc = NewBookingService(e.bookings, e.labourers, e.users, e.dispatcher, e.alerts)
	e.svc.async = syncRun
	return e
}

func (e *engine) customer(c *qt.C, name, token string) *models.User {
	u := &models.User{Name: name, Email: name + "@example.com", Role: models.RoleCustomer, FCMToken: token}
	_, err := e.users.Create(context.Background(), u)
	c.Assert(err, qt.IsNil)
	return u
}

func (e *engine) worker(c *qt.C, name, category, token string) (*models.User, *models.Labourer) {
	ctx := context.Background()
	u := &models.User{Name: name, Email: name + "@example.com", Role: models.RoleWorker, FCMToken: token}
	_, err := e.users.Create(ctx, u)
	c.Assert(err, qt.IsNil)
	l, err := e.labourers.SaveProfile(ctx, u.ID, repository.ProfileFields{Category: category, HourlyRate: 250})
	c.Assert(err, qt.IsNil)
	return u, l
}

func (e *engine) broadcast(c *qt.C, owner uuid.UUID, category string) *models.Booking {
	b, err := e.svc.Create(context.Background(), CreateBookingInput{
		OwnerID:  owner,
		Category: category,
		Date:     time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC),
	})
	c.Assert(err, qt.IsNil)
	return b
}

func assertKind(c *qt.C, err error, kind ErrorKind) {
	c.Helper()
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(KindOf(err), qt.Equals, kind, qt.Commentf("error: %v", err))
}

func TestCreateDirectDefaultsToLabourerCategory(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)

	owner := e.customer(c, "asha", "")
	_, sparky := e.worker(c, "sparky", "Electrician", "tok-sparky")

	b, err := e.svc.Create(context.Background(), CreateBookingInput{
		OwnerID:    owner.ID,
		LabourerID: &sparky.ID,
		Date:       time.Now(),
		Mode:       "daily",
	})
	c.Assert(err, qt.IsNil)
	c.Assert(b.Category, qt.Equals, "Electrician")
	c.Assert(*b.LabourerID, qt.Equals, sparky.ID)
	c.Assert(b.Status, qt.Equals, models.BookingPending)
	c.Assert(b.PaymentStatus, qt.Equals, models.PaymentPending)
	c.Assert(b.BookingMode, qt.Equals, models.ModeDaily)

	jobs := e.dispatcher.sent()
	c.Assert(jobs, qt.HasLen, 1)
	c.Assert(jobs[0].Tokens, qt.DeepEquals, []string{"tok-sparky"})
	c.Assert(jobs[0].Message.Data["type"], qt.Equals, "booking_request")

	c.Assert(e.alerts.bookings, qt.HasLen, 1)
	c.Assert(e.alerts.bookings[0].LabourerName, qt.Equals, "sparky")
}

func TestCreateBroadcastWithoutCategoryStoresNothing(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")

	_, err := e.svc.Create(context.Background(), CreateBookingInput{OwnerID: owner.ID, Date: time.Now()})
	assertKind(c, err, KindInvalidInput)

	var count int64
	c.Assert(e.db.Model(&models.Booking{}).Count(&count).Error, qt.IsNil)
	c.Assert(count, qt.Equals, int64(0))
	c.Assert(e.dispatcher.sent(), qt.HasLen, 0)
}

func TestCreateBroadcastNotifiesCategory(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")
	e.worker(c, "p1", "Plumber", "tok-1")
	e.worker(c, "p2", "Plumber", "tok-2")
	e.worker(c, "p3", "Plumber", "")
	e.worker(c, "mason", "Mason", "tok-3")

	b := e.broadcast(c, owner.ID, "Plumber")
	c.Assert(b.LabourerID, qt.IsNil)

	jobs := e.dispatcher.sent()
	c.Assert(jobs, qt.HasLen, 1)
	c.Assert(jobs[0].Tokens, qt.ContentEquals, []string{"tok-1", "tok-2"})
	c.Assert(jobs[0].Message.Data["booking_id"], qt.Equals, b.ID.String())
}

func TestCreateRejectsBadInput(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")
	missing := uuid.New()
	zero := 0

	tests := []struct {
		about string
		in    CreateBookingInput
		kind  ErrorKind
	}{{
		about: "unknown labourer",
		in:    CreateBookingInput{OwnerID: owner.ID, LabourerID: &missing, Date: time.Now()},
		kind:  KindNotFound,
	}, {
		about: "unknown mode",
		in:    CreateBookingInput{OwnerID: owner.ID, Category: "Plumber", Date: time.Now(), Mode: "weekly"},
		kind:  KindInvalidInput,
	}, {
		about: "missing date",
		in:    CreateBookingInput{OwnerID: owner.ID, Category: "Plumber"},
		kind:  KindInvalidInput,
	}, {
		about: "zero hours",
		in:    CreateBookingInput{OwnerID: owner.ID, Category: "Plumber", Date: time.Now(), NumberOfHours: &zero},
		kind:  KindInvalidInput,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			_, err := e.svc.Create(context.Background(), test.in)
			assertKind(c, err, test.kind)
		})
	}
}

func TestListForWorkerRequiresProfile(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")

	_, err := e.svc.ListForWorker(context.Background(), owner.ID)
	assertKind(c, err, KindNotFound)
}

func TestListViews(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")
	worker, _ := e.worker(c, "pipes", "Plumber", "")
	e.broadcast(c, owner.ID, "Plumber")
	e.broadcast(c, owner.ID, "Mason")

	mine, err := e.svc.ListForCustomer(context.Background(), owner.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(mine, qt.HasLen, 2)

	pool, err := e.svc.ListForWorker(context.Background(), worker.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(pool, qt.HasLen, 1)
	c.Assert(pool[0].Category, qt.Equals, "Plumber")
}

func TestGetVisibility(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")
	plumber, _ := e.worker(c, "pipes", "Plumber", "")
	mason, _ := e.worker(c, "bricks", "Mason", "")
	stranger := e.customer(c, "nosy", "")
	b := e.broadcast(c, owner.ID, "Plumber")

	ctx := context.Background()
	_, err := e.svc.Get(ctx, owner.ID, b.ID)
	c.Assert(err, qt.IsNil)
	_, err = e.svc.Get(ctx, plumber.ID, b.ID)
	c.Assert(err, qt.IsNil)
	_, err = e.svc.Get(ctx, mason.ID, b.ID)
	assertKind(c, err, KindUnauthorized)
	_, err = e.svc.Get(ctx, stranger.ID, b.ID)
	assertKind(c, err, KindUnauthorized)
	_, err = e.svc.Get(ctx, owner.ID, uuid.New())
	assertKind(c, err, KindNotFound)
}

func TestClaimConfirmsAndNotifiesOwner(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "tok-owner")
	worker, labourer := e.worker(c, "pipes", "Plumber", "")
	b := e.broadcast(c, owner.ID, "Plumber")

	claimed, err := e.svc.Claim(context.Background(), worker.ID, b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(*claimed.LabourerID, qt.Equals, labourer.ID)
	c.Assert(claimed.Status, qt.Equals, models.BookingConfirmed)

	jobs := e.dispatcher.sent()
	last := jobs[len(jobs)-1]
	c.Assert(last.Tokens, qt.DeepEquals, []string{"tok-owner"})
	c.Assert(last.Message.Data["type"], qt.Equals, "booking_claimed")
}

func TestClaimChecks(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "")
	plumber, _ := e.worker(c, "pipes", "Plumber", "")
	other, _ := e.worker(c, "drain", "Plumber", "")
	mason, _ := e.worker(c, "bricks", "Mason", "")
	b := e.broadcast(c, owner.ID, "Plumber")

	_, err := e.svc.Claim(ctx, owner.ID, b.ID)
	assertKind(c, err, KindNotFound)

	_, err = e.svc.Claim(ctx, plumber.ID, uuid.New())
	assertKind(c, err, KindNotFound)

	_, err = e.svc.Claim(ctx, mason.ID, b.ID)
	assertKind(c, err, KindForbidden)

	_, err = e.svc.Claim(ctx, plumber.ID, b.ID)
	c.Assert(err, qt.IsNil)

	_, err = e.svc.Claim(ctx, other.ID, b.ID)
	assertKind(c, err, KindConflict)
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")
	w1, _ := e.worker(c, "pipes", "Plumber", "")
	w2, _ := e.worker(c, "drain", "Plumber", "")
	b := e.broadcast(c, owner.ID, "Plumber")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, w := range []uuid.UUID{w1.ID, w2.ID} {
		wg.Add(1)
		go func(i int, w uuid.UUID) {
			defer wg.Done()
			_, errs[i] = e.svc.Claim(context.Background(), w, b.ID)
		}(i, w)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assertKind(c, err, KindConflict)
	}
	c.Assert(wins, qt.Equals, 1)
}

func TestUpdateStatusByStrangerLeavesBookingAlone(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	owner := e.customer(c, "asha", "")
	stranger := e.customer(c, "nosy", "")
	b := e.broadcast(c, owner.ID, "Plumber")

	_, err := e.svc.UpdateStatus(context.Background(), stranger.ID, b.ID, "cancelled")
	assertKind(c, err, KindUnauthorized)

	got, err := e.bookings.ByID(context.Background(), b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Status, qt.Equals, models.BookingPending)
}

func TestUpdateStatusRules(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "tok-owner")
	worker, _ := e.worker(c, "pipes", "Plumber", "tok-worker")
	b := e.broadcast(c, owner.ID, "Plumber")

	_, err := e.svc.UpdateStatus(ctx, owner.ID, b.ID, "finished")
	assertKind(c, err, KindInvalidInput)

	_, err = e.svc.UpdateStatus(ctx, owner.ID, b.ID, "confirmed")
	assertKind(c, err, KindConflict)

	_, err = e.svc.UpdateStatus(ctx, owner.ID, b.ID, "pending")
	assertKind(c, err, KindConflict)

	_, err = e.svc.Claim(ctx, worker.ID, b.ID)
	c.Assert(err, qt.IsNil)

	done, err := e.svc.UpdateStatus(ctx, worker.ID, b.ID, "completed")
	c.Assert(err, qt.IsNil)
	c.Assert(done.Status, qt.Equals, models.BookingCompleted)

	jobs := e.dispatcher.sent()
	last := jobs[len(jobs)-1]
	c.Assert(last.Tokens, qt.DeepEquals, []string{"tok-owner"})
	c.Assert(last.Message.Data["status"], qt.Equals, "completed")

	_, err = e.svc.UpdateStatus(ctx, owner.ID, b.ID, "pending")
	assertKind(c, err, KindConflict)
	_, err = e.svc.UpdateStatus(ctx, owner.ID, b.ID, "cancelled")
	assertKind(c, err, KindConflict)
}

func TestCompletionCreditsLabourerAndReleasesPayment(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "")
	worker, labourer := e.worker(c, "pipes", "Plumber", "tok-worker")
	b := e.broadcast(c, owner.ID, "Plumber")

	_, err := e.svc.Claim(ctx, worker.ID, b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(e.bookings.AttachOrder(ctx, b.ID, "order_1", 500), qt.IsNil)
	c.Assert(e.bookings.CapturePayment(ctx, b.ID, "order_1", "pay_1"), qt.IsNil)

	done, err := e.svc.UpdateStatus(ctx, owner.ID, b.ID, "completed")
	c.Assert(err, qt.IsNil)
	c.Assert(done.PaymentStatus, qt.Equals, models.PaymentReleased)

	l, err := e.labourers.ByID(ctx, labourer.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(l.JobsCompleted, qt.Equals, labourer.JobsCompleted+1)

	jobs := e.dispatcher.sent()
	c.Assert(jobs[len(jobs)-1].Tokens, qt.DeepEquals, []string{"tok-worker"})
}

type paymentFixture struct {
	*engine
	gateway  *fakeGateway
	payments *PaymentService
}

func newPaymentFixture(t *testing.T, secret string) *paymentFixture {
	e := newEngine(t)
	gw := &fakeGateway{}
	p := NewPaymentService(e.bookings, gw, secret, "", e.alerts)
	p.async = syncRun
	return &paymentFixture{engine: e, gateway: gw, payments: p}
}

func TestCreateOrderUsesMinorUnits(t *testing.T) {
	c := qt.New(t)
	f := newPaymentFixture(t, "shh")
	owner := f.customer(c, "asha", "")
	b := f.broadcast(c, owner.ID, "Plumber")

	order, err := f.payments.CreateOrder(context.Background(), owner.ID, b.ID, 500)
	c.Assert(err, qt.IsNil)
	c.Assert(order.ID, qt.Equals, "order_test_1")
	c.Assert(order.Amount, qt.Equals, int64(50000))

	c.Assert(f.gateway.requests, qt.HasLen, 1)
	req := f.gateway.requests[0]
	c.Assert(req.AmountMinor, qt.Equals, int64(50000))
	c.Assert(req.Currency, qt.Equals, "INR")
	c.Assert(req.Receipt, qt.Equals, "receipt_booking_"+b.ID.String())
	c.Assert(req.Notes, qt.DeepEquals, map[string]string{
		"booking_id": b.ID.String(),
		"user_id":    owner.ID.String(),
	})

	got, err := f.bookings.ByID(context.Background(), b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.OrderID, qt.Equals, "order_test_1")
	c.Assert(got.Amount, qt.Equals, 500.0)
	c.Assert(got.Status, qt.Equals, models.BookingPending)
	c.Assert(got.PaymentStatus, qt.Equals, models.PaymentPending)
}

func TestCreateOrderChecks(t *testing.T) {
	c := qt.New(t)
	f := newPaymentFixture(t, "shh")
	ctx := context.Background()
	owner := f.customer(c, "asha", "")
	stranger := f.customer(c, "nosy", "")
	b := f.broadcast(c, owner.ID, "Plumber")

	_, err := f.payments.CreateOrder(ctx, owner.ID, b.ID, 0)
	assertKind(c, err, KindInvalidInput)
	_, err = f.payments.CreateOrder(ctx, owner.ID, uuid.New(), 100)
	assertKind(c, err, KindNotFound)
	_, err = f.payments.CreateOrder(ctx, stranger.ID, b.ID, 100)
	assertKind(c, err, KindUnauthorized)

	f.gateway.err = errors.New("gateway down")
	_, err = f.payments.CreateOrder(ctx, owner.ID, b.ID, 100)
	assertKind(c, err, KindInternal)
	c.Assert(f.gateway.requests, qt.HasLen, 0)
}

func TestVerifyPayment(t *testing.T) {
	c := qt.New(t)
	f := newPaymentFixture(t, "shh")
	ctx := context.Background()
	owner := f.customer(c, "asha", "")
	b := f.broadcast(c, owner.ID, "Plumber")
	_, err := f.payments.CreateOrder(ctx, owner.ID, b.ID, 500)
	c.Assert(err, qt.IsNil)

	bad := VerifyInput{BookingID: b.ID, OrderID: "order_test_1", PaymentID: "pay_1", Signature: Signature("wrong", "order_test_1", "pay_1")}
	res, err := f.payments.Verify(ctx, owner.ID, bad)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Verified, qt.IsFalse)
	got, _ := f.bookings.ByID(ctx, b.ID)
	c.Assert(got.PaymentStatus, qt.Equals, models.PaymentPending)

	good := VerifyInput{BookingID: b.ID, OrderID: "order_test_1", PaymentID: "pay_1", Signature: Signature("shh", "order_test_1", "pay_1")}
	res, err = f.payments.Verify(ctx, owner.ID, good)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Verified, qt.IsTrue)
	got, _ = f.bookings.ByID(ctx, b.ID)
	c.Assert(got.PaymentStatus, qt.Equals, models.PaymentPaid)
	c.Assert(got.PaymentID, qt.Equals, "pay_1")
	c.Assert(f.alerts.payments, qt.HasLen, 1)
	c.Assert(f.alerts.payments[0].Amount, qt.Equals, 500.0)

	_, err = f.payments.Verify(ctx, owner.ID, good)
	assertKind(c, err, KindConflict)
}

func TestVerifyRejectsForeignOrder(t *testing.T) {
	c := qt.New(t)
	f := newPaymentFixture(t, "shh")
	ctx := context.Background()
	owner := f.customer(c, "asha", "")
	b := f.broadcast(c, owner.ID, "Plumber")
	_, err := f.payments.CreateOrder(ctx, owner.ID, b.ID, 500)
	c.Assert(err, qt.IsNil)

	in := VerifyInput{BookingID: b.ID, OrderID: "order_other", PaymentID: "pay_1", Signature: Signature("shh", "order_other", "pay_1")}
	_, err = f.payments.Verify(ctx, owner.ID, in)
	assertKind(c, err, KindConflict)
}

func TestValidSignature(t *testing.T) {
	c := qt.New(t)
	sig := Signature("secret", "order_1", "pay_1")
	c.Assert(sig, qt.HasLen, 64)
	c.Assert(ValidSignature("secret", "order_1", "pay_1", sig), qt.IsTrue)
	c.Assert(ValidSignature("secret", "order_1", "pay_2", sig), qt.IsFalse)
	c.Assert(ValidSignature("secret", "order_1", "pay_1", sig[:63]), qt.IsFalse)
	c.Assert(ValidSignature("", "order_1", "pay_1", Signature("", "order_1", "pay_1")), qt.IsFalse)
}

func TestStubGatewayIssuesLocalIDs(t *testing.T) {
	c := qt.New(t)
	id, err := StubGateway{}.CreateOrder(context.Background(), OrderRequest{AmountMinor: 100, Currency: "INR"})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Matches, `order_stub_[0-9a-f-]{36}`)
}

func TestClaimCancelledBroadcast(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "")
	worker, _ := e.worker(c, "pipes", "Plumber", "")
	b := e.broadcast(c, owner.ID, "Plumber")

	_, err := e.svc.UpdateStatus(ctx, owner.ID, b.ID, "cancelled")
	c.Assert(err, qt.IsNil)

	_, err = e.svc.Claim(ctx, worker.ID, b.ID)
	assertKind(c, err, KindConflict)

	_, err = e.bookings.Claim(ctx, b.ID, uuid.New(), "Plumber")
	c.Assert(err, qt.Equals, repository.ErrConflict)
}

func TestOwnerActsForLabourerWithoutAccount(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "")
	seeded := &models.Labourer{Name: "Ramesh Kumar", Category: "Plumber", Location: "Mumbai", HourlyRate: 250}
	c.Assert(e.labourers.Create(ctx, seeded), qt.IsNil)

	b, err := e.svc.Create(ctx, CreateBookingInput{OwnerID: owner.ID, LabourerID: &seeded.ID, Date: time.Now()})
	c.Assert(err, qt.IsNil)

	confirmed, err := e.svc.UpdateStatus(ctx, owner.ID, b.ID, "confirmed")
	c.Assert(err, qt.IsNil)
	c.Assert(confirmed.Status, qt.Equals, models.BookingConfirmed)

	done, err := e.svc.UpdateStatus(ctx, owner.ID, b.ID, "completed")
	c.Assert(err, qt.IsNil)
	c.Assert(done.Status, qt.Equals, models.BookingCompleted)

	l, err := e.labourers.ByID(ctx, seeded.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(l.JobsCompleted, qt.Equals, 1)
}

func TestOwnerCannotConfirmForLabourerWithAccount(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "")
	_, labourer := e.worker(c, "pipes", "Plumber", "")

	b, err := e.svc.Create(ctx, CreateBookingInput{OwnerID: owner.ID, LabourerID: &labourer.ID, Date: time.Now()})
	c.Assert(err, qt.IsNil)

	_, err = e.svc.UpdateStatus(ctx, owner.ID, b.ID, "confirmed")
	assertKind(c, err, KindConflict)
}

type failingUsers struct{}

func (failingUsers) ByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, errors.New("users unavailable")
}

type failingTokens struct {
	*repository.LabourerRepo
}

func (failingTokens) PushTokensByCategory(context.Context, string) ([]string, error) {
	return nil, errors.New("tokens unavailable")
}

func TestNotificationLookupFailuresDoNotFailRequests(t *testing.T) {
	c := qt.New(t)
	e := newEngine(t)
	ctx := context.Background()
	owner := e.customer(c, "asha", "tok-owner")
	worker, labourer := e.worker(c, "pipes", "Plumber", "tok-worker")

	svc := NewBookingService(e.bookings, failingTokens{e.labourers}, failingUsers{}, e.dispatcher, nil)
	svc.async = syncRun

	b, err := svc.Create(ctx, CreateBookingInput{OwnerID: owner.ID, Category: "Plumber", Date: time.Now()})
	c.Assert(err, qt.IsNil)

	direct, err := svc.Create(ctx, CreateBookingInput{OwnerID: owner.ID, LabourerID: &labourer.ID, Date: time.Now()})
	c.Assert(err, qt.IsNil)
	c.Assert(*direct.LabourerID, qt.Equals, labourer.ID)

	claimed, err := svc.Claim(ctx, worker.ID, b.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(claimed.Status, qt.Equals, models.BookingConfirmed)

	_, err = svc.UpdateStatus(ctx, worker.ID, b.ID, "completed")
	c.Assert(err, qt.IsNil)

	c.Assert(e.dispatcher.sent(), qt.HasLen, 0)
}
