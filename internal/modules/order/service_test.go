package order

import (
	"context"
	"errors"
	"strings"
	"testing"

	"microhub-delivery/internal/metrics"
	"microhub-delivery/internal/models"
)

// ----------------------------------------------------------------------------
// fakeRepo: in-memory stand-in for the order repository. Conditional
// transitions behave like the real SQL: they fail when the stored status no
// longer matches the expected one.
// ----------------------------------------------------------------------------
type fakeRepo struct {
	orders map[string]*models.Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]*models.Order)}
}

func (f *fakeRepo) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	cp := *o
	f.orders[o.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]*models.Order, error) {
	out := make([]*models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) ListByVendor(ctx context.Context, vendorID string) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.VendorID == vendorID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForDriver(ctx context.Context, driverID string) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.Status == models.OrderStatusWaiting || (o.AssignedDriverID != nil && *o.AssignedDriverID == driverID) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) Delete(ctx context.Context, orderID string) error {
	if _, ok := f.orders[orderID]; !ok {
		return models.ErrNotFound
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeRepo) AssignDriver(ctx context.Context, orderID, driverID string, distanceKm *float64) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != models.OrderStatusWaiting {
		return models.ErrOrderStateConflict
	}
	o.Status = models.OrderStatusPickup
	o.AssignedDriverID = &driverID
	if distanceKm != nil {
		o.DistanceKm = distanceKm
	}
	return nil
}

func (f *fakeRepo) TransitionStatus(ctx context.Context, orderID, expected, next string) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != expected {
		return models.ErrOrderStateConflict
	}
	o.Status = next
	return nil
}

func (f *fakeRepo) IncrementPickupAttempts(ctx context.Context, orderID string) error {
	if o, ok := f.orders[orderID]; ok {
		o.PickupAttempts++
	}
	return nil
}

func (f *fakeRepo) IncrementDeliveryAttempts(ctx context.Context, orderID string) error {
	if o, ok := f.orders[orderID]; ok {
		o.DeliveryAttempts++
	}
	return nil
}

// fakeProductRepo mimics the conditional stock ledger.
type fakeProductRepo struct {
	products map[string]*models.Product
}

func (f *fakeProductRepo) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) DebitStock(ctx context.Context, productID string, qty int) error {
	p, ok := f.products[productID]
	if !ok || p.Stock < qty {
		return models.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

func (f *fakeProductRepo) CreditStock(ctx context.Context, productID string, qty int) error {
	p, ok := f.products[productID]
	if !ok {
		return models.ErrNotFound
	}
	p.Stock += qty
	return nil
}

type fakeHubRepo struct {
	hubs map[string]*models.Microhub
}

func (f *fakeHubRepo) FindByID(ctx context.Context, microhubID string) (*models.Microhub, error) {
	m, ok := f.hubs[microhubID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

type fakeDriverRepo struct {
	deliveries map[string]int
}

func (f *fakeDriverRepo) IncrementDeliveries(ctx context.Context, driverID string) error {
	f.deliveries[driverID]++
	return nil
}

// ----------------------------------------------------------------------------
// Test fixture
// ----------------------------------------------------------------------------
type fixture struct {
	svc      *Service
	repo     *fakeRepo
	products *fakeProductRepo
	hubs     *fakeHubRepo
	drivers  *fakeDriverRepo
}

func newFixture() *fixture {
	lat, lng := 23.8103, 90.4125
	f := &fixture{
		repo: newFakeRepo(),
		products: &fakeProductRepo{products: map[string]*models.Product{
			"prod-1": {ID: "prod-1", VendorID: "vendor-1", Name: "Widget", Price: 40.0, Stock: 5},
		}},
		hubs: &fakeHubRepo{hubs: map[string]*models.Microhub{
			"hub-1": {ID: "hub-1", Name: "Gulshan Hub", Latitude: &lat, Longitude: &lng, Capacity: 1000, Status: models.MicrohubStatusActive},
		}},
		drivers: &fakeDriverRepo{deliveries: make(map[string]int)},
	}
	f.svc = NewService(f.repo, f.products, f.hubs, f.drivers, metrics.NewRegistry())
	return f
}

func validCreateReq() models.CreateOrderRequest {
	return models.CreateOrderRequest{
		CustomerName:          "Rahim Uddin",
		PhoneNumber:           "+8801711111111",
		SourceMicrohubID:      "hub-1",
		DestinationMicrohubID: "hub-1",
		SpecifiedAddress:      "House 7, Road 11, Banani",
		ProductID:             "prod-1",
		Quantity:              3,
		DeliveryType:          models.DeliveryTypeExpress,
		DeliveryLocation: models.DeliveryLocation{
			Coordinates: [2]float64{90.3950, 23.7805},
			Address:     "Banani, Dhaka",
		},
	}
}

var vendor = models.Caller{Role: models.RoleVendor, VendorID: "vendor-1"}
var driver = models.Caller{Role: models.RoleDriver, DriverID: "driver-1"}

func TestCreateOrder(t *testing.T) {
	f := newFixture()

	o, err := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if o.Total != 120.0 {
		t.Errorf("total = %v, want 120 (price 40 x qty 3)", o.Total)
	}
	if f.products.products["prod-1"].Stock != 2 {
		t.Errorf("stock = %d, want 2", f.products.products["prod-1"].Stock)
	}
	if o.Status != models.OrderStatusWaiting {
		t.Errorf("status = %q, want Waiting", o.Status)
	}
	if o.Eta != models.EtaExpress {
		t.Errorf("eta = %q, want %q", o.Eta, models.EtaExpress)
	}
	if len(o.PickupOtp) != 4 || len(o.DeliveryOtp) != 4 {
		t.Errorf("OTPs = %q/%q, want 4 characters each", o.PickupOtp, o.DeliveryOtp)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	req := validCreateReq()
	req.Quantity = 6 // only 5 in stock

	_, err := f.svc.CreateOrder(context.Background(), vendor, req)
	if err != models.ErrInsufficientStock {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if f.products.products["prod-1"].Stock != 5 {
		t.Errorf("stock = %d, want untouched 5", f.products.products["prod-1"].Stock)
	}
}

func TestCreateOrder_WrongVendor(t *testing.T) {
	f := newFixture()
	other := models.Caller{Role: models.RoleVendor, VendorID: "vendor-2"}

	_, err := f.svc.CreateOrder(context.Background(), other, validCreateReq())
	if err != models.ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCreateOrder_ProductMissing(t *testing.T) {
	f := newFixture()
	req := validCreateReq()
	req.ProductID = "prod-missing"

	_, err := f.svc.CreateOrder(context.Background(), vendor, req)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want wrapped ErrNotFound", err)
	}
}

func TestDeleteOrder_RestoresStock(t *testing.T) {
	f := newFixture()
	o, err := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if f.products.products["prod-1"].Stock != 2 {
		t.Fatalf("stock after create = %d, want 2", f.products.products["prod-1"].Stock)
	}

	if err := f.svc.DeleteOrder(context.Background(), vendor, o.ID); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}
	if f.products.products["prod-1"].Stock != 5 {
		t.Errorf("stock after delete = %d, want restored 5", f.products.products["prod-1"].Stock)
	}
	if _, err := f.repo.FindByID(context.Background(), o.ID); err != models.ErrNotFound {
		t.Errorf("order still retrievable after delete")
	}
}

func TestDeleteOrder_OtherVendorForbidden(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())

	other := models.Caller{Role: models.RoleVendor, VendorID: "vendor-2"}
	if err := f.svc.DeleteOrder(context.Background(), other, o.ID); err != models.ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestAcceptOrder_ComputesDistance(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())

	accepted, err := f.svc.AcceptOrder(context.Background(), driver, o.ID)
	if err != nil {
		t.Fatalf("AcceptOrder failed: %v", err)
	}
	if accepted.Status != models.OrderStatusPickup {
		t.Errorf("status = %q, want Pickup", accepted.Status)
	}
	if accepted.AssignedDriverID == nil || *accepted.AssignedDriverID != "driver-1" {
		t.Errorf("assigned driver = %v, want driver-1", accepted.AssignedDriverID)
	}
	if accepted.DistanceKm == nil {
		t.Fatal("distance not populated on accept")
	}
	// Gulshan hub to Banani drop-off is a short hop, well under 10km.
	if *accepted.DistanceKm <= 0 || *accepted.DistanceKm > 10 {
		t.Errorf("distance = %v km, want a small positive value", *accepted.DistanceKm)
	}
}

func TestAcceptOrder_WrongState(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	if _, err := f.svc.AcceptOrder(context.Background(), driver, o.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	other := models.Caller{Role: models.RoleDriver, DriverID: "driver-2"}
	if _, err := f.svc.AcceptOrder(context.Background(), other, o.ID); err != models.ErrOrderStateInvalid {
		t.Fatalf("err = %v, want ErrOrderStateInvalid", err)
	}
}

func TestVerifyPickup(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)

	stored, _ := f.repo.FindByID(context.Background(), o.ID)

	// Lowercase input must be accepted; comparison is case-folded.
	updated, err := f.svc.VerifyPickup(context.Background(), driver, o.ID, strings.ToLower(stored.PickupOtp))
	if err != nil {
		t.Fatalf("VerifyPickup failed: %v", err)
	}
	if updated.Status != models.OrderStatusDelivering {
		t.Errorf("status = %q, want Delivering", updated.Status)
	}
}

func TestVerifyPickup_WrongCode(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)

	_, err := f.svc.VerifyPickup(context.Background(), driver, o.ID, "ZZZZZ")
	if err != models.ErrInvalidOtp {
		t.Fatalf("err = %v, want ErrInvalidOtp", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), o.ID)
	if stored.Status != models.OrderStatusPickup {
		t.Errorf("status changed on failed OTP: %q", stored.Status)
	}
	if stored.PickupAttempts != 1 {
		t.Errorf("pickup attempts = %d, want 1", stored.PickupAttempts)
	}
}

func TestVerifyPickup_WrongDriver(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)

	stored, _ := f.repo.FindByID(context.Background(), o.ID)
	other := models.Caller{Role: models.RoleDriver, DriverID: "driver-2"}
	if _, err := f.svc.VerifyPickup(context.Background(), other, o.ID, stored.PickupOtp); err != models.ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestVerifyPickup_Lockout(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)

	for i := 0; i < MaxOtpAttempts; i++ {
		if _, err := f.svc.VerifyPickup(context.Background(), driver, o.ID, "----"); err != models.ErrInvalidOtp {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidOtp", i, err)
		}
	}

	// Even the correct code is rejected once locked.
	stored, _ := f.repo.FindByID(context.Background(), o.ID)
	if _, err := f.svc.VerifyPickup(context.Background(), driver, o.ID, stored.PickupOtp); err != models.ErrOtpLocked {
		t.Fatalf("err = %v, want ErrOtpLocked", err)
	}
}

func TestCompleteOrder(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)

	stored, _ := f.repo.FindByID(context.Background(), o.ID)

	// Delivery OTP presented during Pickup must fail regardless of correctness.
	if _, err := f.svc.CompleteOrder(context.Background(), driver, o.ID, stored.DeliveryOtp); err != models.ErrOrderStateInvalid {
		t.Fatalf("wrong-stage complete: err = %v, want ErrOrderStateInvalid", err)
	}

	if _, err := f.svc.VerifyPickup(context.Background(), driver, o.ID, stored.PickupOtp); err != nil {
		t.Fatalf("VerifyPickup failed: %v", err)
	}

	done, err := f.svc.CompleteOrder(context.Background(), driver, o.ID, stored.DeliveryOtp)
	if err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}
	if done.Status != models.OrderStatusCompleted {
		t.Errorf("status = %q, want Completed", done.Status)
	}
	if f.drivers.deliveries["driver-1"] != 1 {
		t.Errorf("driver deliveries = %d, want exactly 1", f.drivers.deliveries["driver-1"])
	}

	// Terminal state: completing again must fail and not double-count.
	if _, err := f.svc.CompleteOrder(context.Background(), driver, o.ID, stored.DeliveryOtp); err != models.ErrOrderStateInvalid {
		t.Fatalf("re-complete: err = %v, want ErrOrderStateInvalid", err)
	}
	if f.drivers.deliveries["driver-1"] != 1 {
		t.Errorf("driver deliveries after re-complete = %d, want 1", f.drivers.deliveries["driver-1"])
	}
}

// conflictRepo injects zero-rows-affected results on the conditional writes,
// as when another driver wins the transition between the read and the update.
type conflictRepo struct {
	*fakeRepo
	failAssign     bool
	failTransition bool
}

func (r *conflictRepo) AssignDriver(ctx context.Context, orderID, driverID string, distanceKm *float64) error {
	if r.failAssign {
		return models.ErrOrderStateConflict
	}
	return r.fakeRepo.AssignDriver(ctx, orderID, driverID, distanceKm)
}

func (r *conflictRepo) TransitionStatus(ctx context.Context, orderID, expected, next string) error {
	if r.failTransition {
		return models.ErrOrderStateConflict
	}
	return r.fakeRepo.TransitionStatus(ctx, orderID, expected, next)
}

func TestAcceptOrder_RacedAssignment(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())

	svc := NewService(&conflictRepo{fakeRepo: f.repo, failAssign: true},
		f.products, f.hubs, f.drivers, metrics.NewRegistry())

	_, err := svc.AcceptOrder(context.Background(), driver, o.ID)
	if !errors.Is(err, models.ErrOrderStateConflict) {
		t.Fatalf("err = %v, want wrapped ErrOrderStateConflict", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), o.ID)
	if stored.AssignedDriverID != nil {
		t.Errorf("driver assigned despite losing the race: %v", *stored.AssignedDriverID)
	}
}

func TestVerifyPickup_RacedTransition(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)
	stored, _ := f.repo.FindByID(context.Background(), o.ID)

	svc := NewService(&conflictRepo{fakeRepo: f.repo, failTransition: true},
		f.products, f.hubs, f.drivers, metrics.NewRegistry())

	_, err := svc.VerifyPickup(context.Background(), driver, o.ID, stored.PickupOtp)
	if !errors.Is(err, models.ErrOrderStateConflict) {
		t.Fatalf("err = %v, want wrapped ErrOrderStateConflict", err)
	}
}

func TestCompleteOrder_RacedTransition(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o.ID)
	stored, _ := f.repo.FindByID(context.Background(), o.ID)
	if _, err := f.svc.VerifyPickup(context.Background(), driver, o.ID, stored.PickupOtp); err != nil {
		t.Fatalf("VerifyPickup failed: %v", err)
	}

	svc := NewService(&conflictRepo{fakeRepo: f.repo, failTransition: true},
		f.products, f.hubs, f.drivers, metrics.NewRegistry())

	_, err := svc.CompleteOrder(context.Background(), driver, o.ID, stored.DeliveryOtp)
	if !errors.Is(err, models.ErrOrderStateConflict) {
		t.Fatalf("err = %v, want wrapped ErrOrderStateConflict", err)
	}
	if f.drivers.deliveries["driver-1"] != 0 {
		t.Errorf("driver deliveries = %d after losing the race, want 0", f.drivers.deliveries["driver-1"])
	}
}

// vanishedRepo reports the row already gone at delete time, as when two
// deletes of the same order race.
type vanishedRepo struct {
	*fakeRepo
}

func (r *vanishedRepo) Delete(ctx context.Context, orderID string) error {
	return models.ErrNotFound
}

func TestDeleteOrder_RacedDeleteDoesNotCredit(t *testing.T) {
	f := newFixture()
	o, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())

	svc := NewService(&vanishedRepo{fakeRepo: f.repo},
		f.products, f.hubs, f.drivers, metrics.NewRegistry())

	err := svc.DeleteOrder(context.Background(), vendor, o.ID)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want wrapped ErrNotFound", err)
	}
	if f.products.products["prod-1"].Stock != 2 {
		t.Errorf("stock = %d after losing the delete race, want 2; only the winning delete credits", f.products.products["prod-1"].Stock)
	}
}

func TestListOrders_RoleVisibility(t *testing.T) {
	f := newFixture()
	o1, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	o2, _ := f.svc.CreateOrder(context.Background(), vendor, validCreateReq())
	f.svc.AcceptOrder(context.Background(), driver, o1.ID)

	admin := models.Caller{Role: models.RoleAdmin}
	all, err := f.svc.ListOrders(context.Background(), admin)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin sees %d orders (err %v), want 2", len(all), err)
	}

	// driver-1 sees their assignment plus the waiting pool.
	mine, err := f.svc.ListOrders(context.Background(), driver)
	if err != nil || len(mine) != 2 {
		t.Fatalf("assigned driver sees %d orders (err %v), want 2", len(mine), err)
	}

	// driver-2 only sees the waiting pool.
	other := models.Caller{Role: models.RoleDriver, DriverID: "driver-2"}
	pool, err := f.svc.ListOrders(context.Background(), other)
	if err != nil || len(pool) != 1 {
		t.Fatalf("other driver sees %d orders (err %v), want 1", len(pool), err)
	}
	if pool[0].ID != o2.ID {
		t.Errorf("other driver sees %q, want waiting order %q", pool[0].ID, o2.ID)
	}

	vendorOrders, err := f.svc.ListOrders(context.Background(), vendor)
	if err != nil || len(vendorOrders) != 2 {
		t.Fatalf("vendor sees %d orders (err %v), want 2", len(vendorOrders), err)
	}
}
