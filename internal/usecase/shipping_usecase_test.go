package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"testing"

	"github.com/stretchr/testify/assert"

	"dermacare/internal/domain/entity"
	"dermacare/pkg/errors"
)

type fakeShippingRepo struct {
	addresses map[string]*entity.ShippingAddress
	methods   map[string]*entity.ShippingMethod
	orders    map[string]*entity.ShippingOrder
	seq       int
}

func newFakeShippingRepo() *fakeShippingRepo {
	return &fakeShippingRepo{
		addresses: map[string]*entity.ShippingAddress{},
		methods:   map[string]*entity.ShippingMethod{},
		orders:    map[string]*entity.ShippingOrder{},
	}
}

func (r *fakeShippingRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeShippingRepo) CreateAddress(ctx context.Context, address *entity.ShippingAddress) error {
	address.ID = r.nextID("addr")
	if address.IsDefault {
		for _, other := range r.addresses {
			if other.UserID == address.UserID {
				other.IsDefault = false
			}
		}
	}
	r.addresses[address.ID] = address
	return nil
}

func (r *fakeShippingRepo) GetAddressByID(ctx context.Context, id string) (*entity.ShippingAddress, error) {
	address, ok := r.addresses[id]
	if !ok {
		return nil, errors.NotFound("Shipping address", nil)
	}
	return address, nil
}

func (r *fakeShippingRepo) ListAddressesByUser(ctx context.Context, userID string) ([]*entity.ShippingAddress, error) {
	var out []*entity.ShippingAddress
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeShippingRepo) UpdateAddress(ctx context.Context, address *entity.ShippingAddress) error {
	if _, ok := r.addresses[address.ID]; !ok {
		return errors.NotFound("Shipping address", nil)
	}
	r.addresses[address.ID] = address
	return nil
}

func (r *fakeShippingRepo) DeleteAddress(ctx context.Context, id string) error {
	if _, ok := r.addresses[id]; !ok {
		return errors.NotFound("Shipping address", nil)
	}
	delete(r.addresses, id)
	return nil
}

func (r *fakeShippingRepo) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	target, ok := r.addresses[addressID]
	if !ok {
		return errors.NotFound("Shipping address", nil)
	}
	if target.UserID != userID {
		return errors.Forbidden("You do not have permission to modify this address", nil)
	}
	for _, a := range r.addresses {
		if a.UserID == userID {
			a.IsDefault = a.ID == addressID
		}
	}
	return nil
}

func (r *fakeShippingRepo) CreateMethod(ctx context.Context, method *entity.ShippingMethod) error {
	for _, m := range r.methods {
		if m.Name == method.Name {
			return errors.Conflict("A shipping method with this name already exists")
		}
	}
	method.ID = r.nextID("method")
	r.methods[method.ID] = method
	return nil
}

func (r *fakeShippingRepo) GetMethodByID(ctx context.Context, id string) (*entity.ShippingMethod, error) {
	method, ok := r.methods[id]
	if !ok {
		return nil, errors.NotFound("Shipping method", nil)
	}
	found := *method
	return &found, nil
}

func (r *fakeShippingRepo) ListActiveMethods(ctx context.Context) ([]*entity.ShippingMethod, error) {
	var out []*entity.ShippingMethod
	for _, m := range r.methods {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeShippingRepo) UpdateMethod(ctx context.Context, method *entity.ShippingMethod) error {
	if _, ok := r.methods[method.ID]; !ok {
		return errors.NotFound("Shipping method", nil)
	}
	for _, m := range r.methods {
		if m.ID != method.ID && m.Name == method.Name {
			return errors.Conflict("A shipping method with this name already exists")
		}
	}
	r.methods[method.ID] = method
	return nil
}

func (r *fakeShippingRepo) CreateOrder(ctx context.Context, order *entity.ShippingOrder) error {
	order.ID = r.nextID("order")
	order.CreatedAt = time.Now()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeShippingRepo) GetOrderByID(ctx context.Context, id string) (*entity.ShippingOrder, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, errors.NotFound("Shipping order", nil)
	}
	return order, nil
}

func (r *fakeShippingRepo) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.ShippingOrder, int64, error) {
	var all []*entity.ShippingOrder
	for _, o := range r.orders {
		if o.UserID == userID {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakeShippingRepo) AppendOrderStatus(ctx context.Context, order *entity.ShippingOrder, entry entity.StatusEntry) error {
	if _, ok := r.orders[order.ID]; !ok {
		return errors.NotFound("Shipping order", nil)
	}
	r.orders[order.ID] = order
	return nil
}

func (r *fakeShippingRepo) UpdateOrderEstimate(ctx context.Context, order *entity.ShippingOrder) error {
	if _, ok := r.orders[order.ID]; !ok {
		return errors.NotFound("Shipping order", nil)
	}
	r.orders[order.ID] = order
	return nil
}

func setupShippingUseCase() (*ShippingUseCase, *fakeShippingRepo) {
	shippingRepo := newFakeShippingRepo()
	userRepo := newFakeUserRepo(
		&entity.User{ID: "buyer-1", Name: "Maya", Email: "maya@example.com", Role: entity.RoleUser, IsActive: true},
		&entity.User{ID: "agent-1", Name: "Iris", Email: "iris@example.com", Role: entity.RoleSupport, IsActive: true},
	)
	return NewShippingUseCase(shippingRepo, userRepo), shippingRepo
}

func seedAddress(repo *fakeShippingRepo, userID string) *entity.ShippingAddress {
	address := &entity.ShippingAddress{
		ID:           repo.nextID("addr"),
		UserID:       userID,
		FullName:     "Maya Chen",
		PhoneNumber:  "555-123-4567",
		AddressLine1: "12 Elm St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62704",
		Country:      "US",
	}
	repo.addresses[address.ID] = address
	return address
}

func seedMethod(repo *fakeShippingRepo) *entity.ShippingMethod {
	method := &entity.ShippingMethod{
		ID:            repo.nextID("method"),
		Name:          "Standard",
		BasePrice:     10,
		PricePerKg:    2,
		EstimatedDays: entity.EstimatedDays{Min: 2, Max: 5},
		IsActive:      true,
		Restrictions: entity.MethodRestrictions{
			MaxWeight:           10,
			RestrictedCountries: []string{"XX"},
		},
	}
	repo.methods[method.ID] = method
	return method
}

func TestCreateAddressValidatesInput(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address, err := uc.CreateAddress(context.Background(), "buyer-1", AddressInput{
		FullName:     "Maya Chen",
		PhoneNumber:  "555-123-4567",
		AddressLine1: "12 Elm St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62704",
		Country:      "US",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, address.ID)
	assert.Len(t, repo.addresses, 1)

	_, err = uc.CreateAddress(context.Background(), "buyer-1", AddressInput{
		PhoneNumber: "not-a-phone",
		PostalCode:  "62704",
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.CreateAddress(context.Background(), "buyer-1", AddressInput{
		PhoneNumber: "555-123-4567",
		PostalCode:  "abcde",
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestSetDefaultAddressIsExclusive(t *testing.T) {
	uc, repo := setupShippingUseCase()

	first := seedAddress(repo, "buyer-1")
	first.IsDefault = true
	second := seedAddress(repo, "buyer-1")

	assert.NoError(t, uc.SetDefaultAddress(context.Background(), "buyer-1", second.ID))
	assert.False(t, repo.addresses[first.ID].IsDefault)
	assert.True(t, repo.addresses[second.ID].IsDefault)
}

func TestDeleteAddressRequiresOwnership(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address := seedAddress(repo, "buyer-1")

	err := uc.DeleteAddress(context.Background(), "agent-1", address.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Len(t, repo.addresses, 1)

	assert.NoError(t, uc.DeleteAddress(context.Background(), "buyer-1", address.ID))
	assert.Empty(t, repo.addresses)
}

func TestCreateMethodValidatesRanges(t *testing.T) {
	uc, _ := setupShippingUseCase()

	_, err := uc.CreateMethod(context.Background(), MethodInput{
		Name: "Bad", BasePrice: -1, EstimatedDaysMin: 1, EstimatedDaysMax: 2,
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	_, err = uc.CreateMethod(context.Background(), MethodInput{
		Name: "Bad", BasePrice: 5, EstimatedDaysMin: 5, EstimatedDaysMax: 2,
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	method, err := uc.CreateMethod(context.Background(), MethodInput{
		Name: "Express", BasePrice: 25, PricePerKg: 3,
		EstimatedDaysMin: 1, EstimatedDaysMax: 2, MaxWeight: 20, IsActive: true,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, method.ID)

	_, err = uc.CreateMethod(context.Background(), MethodInput{
		Name: "Express", BasePrice: 30, EstimatedDaysMin: 1, EstimatedDaysMax: 3,
	})
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestUpdateMethodPersistsChanges(t *testing.T) {
	uc, repo := setupShippingUseCase()

	method := seedMethod(repo)

	updated, err := uc.UpdateMethod(context.Background(), method.ID, MethodInput{
		Name:             "Standard Plus",
		Description:      "Tracked",
		BasePrice:        12,
		PricePerKg:       3,
		EstimatedDaysMin: 1,
		EstimatedDaysMax: 4,
		MaxWeight:        15,
		IsActive:         true,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Standard Plus", updated.Name)
	assert.Equal(t, 12.0, updated.BasePrice)
	assert.Equal(t, 4, updated.EstimatedDays.Max)
	assert.Equal(t, 15.0, repo.methods[method.ID].Restrictions.MaxWeight)
}

func TestUpdateMethodValidatesAndGuardsName(t *testing.T) {
	uc, repo := setupShippingUseCase()

	method := seedMethod(repo)
	other := &entity.ShippingMethod{ID: repo.nextID("method"), Name: "Express", IsActive: true}
	repo.methods[other.ID] = other

	_, err := uc.UpdateMethod(context.Background(), method.ID, MethodInput{
		Name: "Standard", BasePrice: -1, EstimatedDaysMin: 1, EstimatedDaysMax: 2,
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	// renaming onto another method's name collides
	_, err = uc.UpdateMethod(context.Background(), method.ID, MethodInput{
		Name: "Express", BasePrice: 10, EstimatedDaysMin: 1, EstimatedDaysMax: 2,
	})
	assert.True(t, errors.Is(err, "CONFLICT"))
	assert.Equal(t, "Standard", repo.methods[method.ID].Name)

	_, err = uc.UpdateMethod(context.Background(), "missing", MethodInput{
		Name: "Anything", BasePrice: 10, EstimatedDaysMin: 1, EstimatedDaysMax: 2,
	})
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestCreateOrderComputesCostAndEstimate(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address := seedAddress(repo, "buyer-1")
	method := seedMethod(repo)

	resp, err := uc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		OrderID:   "order-abc",
		AddressID: address.ID,
		MethodID:  method.ID,
		Package:   entity.PackageDetails{Weight: 5},
	})
	assert.NoError(t, err)

	assert.Equal(t, 20.0, resp.ShippingCost)
	assert.Equal(t, entity.ShippingPending, resp.Status)
	assert.Empty(t, resp.StatusHistory)
	assert.Empty(t, resp.TrackingNumber)

	if assert.NotNil(t, resp.EstimatedDeliveryDate) {
		expected := time.Now().AddDate(0, 0, method.EstimatedDays.Max)
		assert.WithinDuration(t, expected, *resp.EstimatedDeliveryDate, time.Minute)
	}
	assert.Equal(t, address.ID, resp.Address.ID)
	assert.Equal(t, method.ID, resp.Method.ID)
}

func TestCreateOrderRejectsOverweightPackage(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address := seedAddress(repo, "buyer-1")
	method := seedMethod(repo)

	_, err := uc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		AddressID: address.ID,
		MethodID:  method.ID,
		Package:   entity.PackageDetails{Weight: 15},
	})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	assert.Empty(t, repo.orders)
}

func TestCreateOrderRejectsRestrictedCountry(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address := seedAddress(repo, "buyer-1")
	address.Country = "XX"
	method := seedMethod(repo)

	_, err := uc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		AddressID: address.ID,
		MethodID:  method.ID,
		Package:   entity.PackageDetails{Weight: 1},
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCreateOrderRejectsInactiveMethod(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address := seedAddress(repo, "buyer-1")
	method := seedMethod(repo)
	method.IsActive = false

	_, err := uc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		AddressID: address.ID,
		MethodID:  method.ID,
		Package:   entity.PackageDetails{Weight: 1},
	})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCreateOrderRequiresAddressOwnership(t *testing.T) {
	uc, repo := setupShippingUseCase()

	address := seedAddress(repo, "someone-else")
	method := seedMethod(repo)

	_, err := uc.CreateOrder(context.Background(), "buyer-1", CreateOrderInput{
		AddressID: address.ID,
		MethodID:  method.ID,
		Package:   entity.PackageDetails{Weight: 1},
	})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestUpdateStatusWalksStateMachine(t *testing.T) {
	uc, repo := setupShippingUseCase()

	order := &entity.ShippingOrder{ID: repo.nextID("order"), UserID: "buyer-1", Status: entity.ShippingPending}
	repo.orders[order.ID] = order

	updated, err := uc.UpdateStatus(context.Background(), order.ID, entity.ShippingProcessing, "packing")
	assert.NoError(t, err)
	assert.Equal(t, entity.ShippingProcessing, updated.Status)
	assert.Empty(t, updated.TrackingNumber)

	updated, err = uc.UpdateStatus(context.Background(), order.ID, entity.ShippingShipped, "")
	assert.NoError(t, err)
	assert.Equal(t, entity.ShippingShipped, updated.Status)
	assert.Regexp(t, `^DC[0-9A-F]{12}$`, updated.TrackingNumber)

	assert.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, updated.Status, updated.StatusHistory[len(updated.StatusHistory)-1].Status)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	uc, repo := setupShippingUseCase()

	order := &entity.ShippingOrder{ID: repo.nextID("order"), UserID: "buyer-1", Status: entity.ShippingPending}
	repo.orders[order.ID] = order

	_, err := uc.UpdateStatus(context.Background(), order.ID, entity.ShippingDelivered, "")
	assert.True(t, errors.Is(err, "CONFLICT"))
	assert.Equal(t, entity.ShippingPending, repo.orders[order.ID].Status)
	assert.Empty(t, repo.orders[order.ID].StatusHistory)
}

func TestUpdateStatusDeliveredStampsDate(t *testing.T) {
	uc, repo := setupShippingUseCase()

	order := &entity.ShippingOrder{ID: repo.nextID("order"), UserID: "buyer-1", Status: entity.ShippingInTransit}
	repo.orders[order.ID] = order

	updated, err := uc.UpdateStatus(context.Background(), order.ID, entity.ShippingDelivered, "left at door")
	assert.NoError(t, err)
	assert.NotNil(t, updated.ActualDeliveryDate)
}

func TestGetOrderAllowsOwnerAndStaff(t *testing.T) {
	uc, repo := setupShippingUseCase()

	order := &entity.ShippingOrder{ID: repo.nextID("order"), UserID: "buyer-1", Status: entity.ShippingPending}
	repo.orders[order.ID] = order

	_, err := uc.GetOrder(context.Background(), "buyer-1", order.ID)
	assert.NoError(t, err)

	_, err = uc.GetOrder(context.Background(), "agent-1", order.ID)
	assert.NoError(t, err)

	_, err = uc.GetOrder(context.Background(), "stranger-1", order.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestListOrdersPaginates(t *testing.T) {
	uc, repo := setupShippingUseCase()

	base := time.Now()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("order-%d", i)
		repo.orders[id] = &entity.ShippingOrder{
			ID:        id,
			UserID:    "buyer-1",
			Status:    entity.ShippingPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	orders, total, err := uc.ListOrders(context.Background(), "buyer-1", 2, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	if assert.Len(t, orders, 2) {
		assert.Equal(t, "order-2", orders[0].ID)
	}

	orders, _, err = uc.ListOrders(context.Background(), "buyer-1", 2, 2)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestEstimateDeliveryOverwrites(t *testing.T) {
	uc, repo := setupShippingUseCase()

	method := seedMethod(repo)
	stale := time.Now().AddDate(0, 0, -30)
	order := &entity.ShippingOrder{
		ID:                    repo.nextID("order"),
		UserID:                "buyer-1",
		MethodID:              method.ID,
		Status:                entity.ShippingPending,
		EstimatedDeliveryDate: &stale,
	}
	repo.orders[order.ID] = order

	updated, err := uc.EstimateDelivery(context.Background(), order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, updated.EstimatedDeliveryDate) {
		expected := time.Now().AddDate(0, 0, method.EstimatedDays.Max)
		assert.WithinDuration(t, expected, *updated.EstimatedDeliveryDate, time.Minute)
	}
}
