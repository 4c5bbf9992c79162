package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"dermacare/internal/domain/entity"
	"dermacare/internal/domain/repository"
	"dermacare/internal/infrastructure/ratelimit"
	"dermacare/pkg/errors"
	"dermacare/pkg/logger"
	"dermacare/pkg/validation"
)

type ShippingUseCase struct {
	shippingRepo repository.ShippingRepository
	userRepo     repository.UserRepository
	rateLimiter  *ratelimit.RateLimiter
}

func NewShippingUseCase(
	shippingRepo repository.ShippingRepository,
	userRepo repository.UserRepository,
) *ShippingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ShippingUseCase{
		shippingRepo: shippingRepo,
		userRepo:     userRepo,
		rateLimiter:  rateLimiter,
	}
}

type AddressInput struct {
	FullName     string
	PhoneNumber  string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	IsDefault    bool
}

type MethodInput struct {
	Name                string
	Description         string
	BasePrice           float64
	PricePerKg          float64
	EstimatedDaysMin    int
	EstimatedDaysMax    int
	MaxWeight           float64
	MaxDimensions       entity.PackageDimensions
	RestrictedCountries []string
	IsActive            bool
}

type CreateOrderInput struct {
	OrderID   string
	AddressID string
	MethodID  string
	Package   entity.PackageDetails
	Notes     string
}

type OrderResponse struct {
	*entity.ShippingOrder
	Address *entity.ShippingAddress `json:"address,omitempty"`
	Method  *entity.ShippingMethod  `json:"method,omitempty"`
}

func (uc *ShippingUseCase) CreateAddress(ctx context.Context, userID string, input AddressInput) (*entity.ShippingAddress, error) {
	if err := validation.ValidatePhoneNumber(input.PhoneNumber); err != nil {
		return nil, err
	}
	if err := validation.ValidatePostalCode(input.PostalCode); err != nil {
		return nil, err
	}

	address := &entity.ShippingAddress{
		UserID:       userID,
		FullName:     input.FullName,
		PhoneNumber:  input.PhoneNumber,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		PostalCode:   input.PostalCode,
		Country:      input.Country,
		IsDefault:    input.IsDefault,
	}

	if err := uc.shippingRepo.CreateAddress(ctx, address); err != nil {
		logger.Error("CreateAddress: failed to persist address for user %s: %v", userID, err)
		return nil, err
	}

	return address, nil
}

func (uc *ShippingUseCase) ListAddresses(ctx context.Context, userID string) ([]*entity.ShippingAddress, error) {
	return uc.shippingRepo.ListAddressesByUser(ctx, userID)
}

func (uc *ShippingUseCase) UpdateAddress(ctx context.Context, userID, addressID string, input AddressInput) (*entity.ShippingAddress, error) {
	if err := validation.ValidatePhoneNumber(input.PhoneNumber); err != nil {
		return nil, err
	}
	if err := validation.ValidatePostalCode(input.PostalCode); err != nil {
		return nil, err
	}

	address, err := uc.shippingRepo.GetAddressByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, errors.Forbidden("You do not have permission to modify this address", nil)
	}

	address.FullName = input.FullName
	address.PhoneNumber = input.PhoneNumber
	address.AddressLine1 = input.AddressLine1
	address.AddressLine2 = input.AddressLine2
	address.City = input.City
	address.State = input.State
	address.PostalCode = input.PostalCode
	address.Country = input.Country

	if err := uc.shippingRepo.UpdateAddress(ctx, address); err != nil {
		return nil, err
	}

	return address, nil
}

func (uc *ShippingUseCase) DeleteAddress(ctx context.Context, userID, addressID string) error {
	address, err := uc.shippingRepo.GetAddressByID(ctx, addressID)
	if err != nil {
		return err
	}
	if address.UserID != userID {
		return errors.Forbidden("You do not have permission to delete this address", nil)
	}

	return uc.shippingRepo.DeleteAddress(ctx, addressID)
}

func (uc *ShippingUseCase) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	return uc.shippingRepo.SetDefaultAddress(ctx, userID, addressID)
}

func (uc *ShippingUseCase) ListMethods(ctx context.Context) ([]*entity.ShippingMethod, error) {
	return uc.shippingRepo.ListActiveMethods(ctx)
}

func validateMethodInput(input MethodInput) error {
	if input.BasePrice < 0 || input.PricePerKg < 0 {
		return errors.Validation("Prices cannot be negative", nil)
	}
	if input.EstimatedDaysMin < 1 || input.EstimatedDaysMax < input.EstimatedDaysMin {
		return errors.Validation("Estimated days range is invalid", nil)
	}
	if input.MaxWeight < 0 {
		return errors.Validation("Maximum weight cannot be negative", nil)
	}
	return nil
}

func (uc *ShippingUseCase) CreateMethod(ctx context.Context, input MethodInput) (*entity.ShippingMethod, error) {
	if err := validateMethodInput(input); err != nil {
		return nil, err
	}

	method := &entity.ShippingMethod{
		Name:        input.Name,
		Description: input.Description,
		BasePrice:   input.BasePrice,
		PricePerKg:  input.PricePerKg,
		EstimatedDays: entity.EstimatedDays{
			Min: input.EstimatedDaysMin,
			Max: input.EstimatedDaysMax,
		},
		IsActive: input.IsActive,
		Restrictions: entity.MethodRestrictions{
			MaxWeight:           input.MaxWeight,
			MaxDimensions:       input.MaxDimensions,
			RestrictedCountries: input.RestrictedCountries,
		},
	}

	if err := uc.shippingRepo.CreateMethod(ctx, method); err != nil {
		return nil, err
	}

	return method, nil
}

func (uc *ShippingUseCase) UpdateMethod(ctx context.Context, methodID string, input MethodInput) (*entity.ShippingMethod, error) {
	if err := validateMethodInput(input); err != nil {
		return nil, err
	}

	method, err := uc.shippingRepo.GetMethodByID(ctx, methodID)
	if err != nil {
		return nil, err
	}

	method.Name = input.Name
	method.Description = input.Description
	method.BasePrice = input.BasePrice
	method.PricePerKg = input.PricePerKg
	method.EstimatedDays = entity.EstimatedDays{
		Min: input.EstimatedDaysMin,
		Max: input.EstimatedDaysMax,
	}
	method.IsActive = input.IsActive
	method.Restrictions = entity.MethodRestrictions{
		MaxWeight:           input.MaxWeight,
		MaxDimensions:       input.MaxDimensions,
		RestrictedCountries: input.RestrictedCountries,
	}

	if err := uc.shippingRepo.UpdateMethod(ctx, method); err != nil {
		return nil, err
	}

	return method, nil
}

// CreateOrder places a shipping order: the package is priced against the
// method, checked against its restrictions, and the delivery date is
// projected from the method's day range.
func (uc *ShippingUseCase) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*OrderResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_shipping_order")
	if !allowed {
		logger.Warn("CreateOrder rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before placing another shipping order")
	}

	if input.Package.Weight < 0 {
		return nil, errors.Validation("Package weight cannot be negative", nil)
	}

	address, err := uc.shippingRepo.GetAddressByID(ctx, input.AddressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != userID {
		return nil, errors.Forbidden("You do not have permission to ship to this address", nil)
	}

	method, err := uc.shippingRepo.GetMethodByID(ctx, input.MethodID)
	if err != nil {
		return nil, err
	}
	if !method.IsActive {
		return nil, errors.BadRequest("Shipping method is not available", nil)
	}
	if !method.AllowsCountry(address.Country) {
		return nil, errors.BadRequest("Shipping method does not ship to the destination country", nil)
	}
	if !method.FitsDimensions(input.Package.Dimensions) {
		return nil, errors.Validation("Package dimensions exceed the method's limits", nil)
	}

	cost, err := method.CalculateCost(input.Package.Weight)
	if err != nil {
		return nil, errors.Validation(err.Error(), nil)
	}

	estimated := method.EstimateDelivery(time.Now())
	order := &entity.ShippingOrder{
		OrderID:               input.OrderID,
		UserID:                userID,
		AddressID:             address.ID,
		MethodID:              method.ID,
		Status:                entity.ShippingPending,
		PackageDetails:        input.Package,
		ShippingCost:          cost,
		EstimatedDeliveryDate: &estimated,
		Notes:                 input.Notes,
	}

	if err := uc.shippingRepo.CreateOrder(ctx, order); err != nil {
		logger.Error("CreateOrder: failed to persist order for user %s: %v", userID, err)
		return nil, err
	}

	return &OrderResponse{
		ShippingOrder: order,
		Address:       address,
		Method:        method,
	}, nil
}

func (uc *ShippingUseCase) GetOrder(ctx context.Context, userID, orderID string) (*OrderResponse, error) {
	order, err := uc.shippingRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		user, err := uc.userRepo.GetByID(ctx, userID)
		if err != nil || !user.Role.IsStaff() {
			return nil, errors.Forbidden("You do not have permission to view this shipping order", nil)
		}
	}

	resp := &OrderResponse{ShippingOrder: order}
	if address, err := uc.shippingRepo.GetAddressByID(ctx, order.AddressID); err == nil {
		resp.Address = address
	}
	if method, err := uc.shippingRepo.GetMethodByID(ctx, order.MethodID); err == nil {
		resp.Method = method
	}

	return resp, nil
}

func (uc *ShippingUseCase) ListOrders(ctx context.Context, userID string, limit, offset int) ([]*entity.ShippingOrder, int64, error) {
	return uc.shippingRepo.ListOrdersByUser(ctx, userID, limit, offset)
}

// UpdateStatus moves an order along the shipping state machine and appends
// the audit entry. Illegal transitions are rejected and append nothing.
// Entering shipped assigns a tracking number; delivered stamps the actual
// delivery date.
func (uc *ShippingUseCase) UpdateStatus(ctx context.Context, orderID string, newStatus entity.ShippingStatus, note string) (*entity.ShippingOrder, error) {
	order, err := uc.shippingRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	entry, err := order.ApplyStatus(newStatus, note, time.Now())
	if err != nil {
		return nil, errors.Conflict(err.Error())
	}

	if newStatus == entity.ShippingShipped && order.TrackingNumber == "" {
		order.TrackingNumber = newTrackingNumber()
	}

	if err := uc.shippingRepo.AppendOrderStatus(ctx, order, entry); err != nil {
		logger.Error("UpdateStatus: failed to persist status %s for order %s: %v", newStatus, orderID, err)
		return nil, err
	}

	return order, nil
}

// EstimateDelivery recomputes the estimated delivery date from the order's
// method, overwriting the previous value.
func (uc *ShippingUseCase) EstimateDelivery(ctx context.Context, orderID string) (*entity.ShippingOrder, error) {
	order, err := uc.shippingRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	method, err := uc.shippingRepo.GetMethodByID(ctx, order.MethodID)
	if err != nil {
		return nil, err
	}

	estimated := method.EstimateDelivery(time.Now())
	order.EstimatedDeliveryDate = &estimated

	if err := uc.shippingRepo.UpdateOrderEstimate(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func newTrackingNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "DC" + raw[:12]
}
