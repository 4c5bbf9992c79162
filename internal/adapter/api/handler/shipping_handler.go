package handler

import (
	"github.com/labstack/echo/v4"

	"dermacare/internal/domain/entity"
	"dermacare/internal/usecase"
	"dermacare/pkg/errors"
	"dermacare/pkg/response"
	"dermacare/pkg/utils"
)

type ShippingHandler struct {
	shippingUseCase *usecase.ShippingUseCase
	pageSize        int
	pageSizeMax     int
}

func NewShippingHandler(shippingUseCase *usecase.ShippingUseCase, pageSize, pageSizeMax int) *ShippingHandler {
	return &ShippingHandler{
		shippingUseCase: shippingUseCase,
		pageSize:        pageSize,
		pageSizeMax:     pageSizeMax,
	}
}

type addressRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber  string `json:"phone_number" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required,max=100"`
	AddressLine2 string `json:"address_line2,omitempty" validate:"omitempty,max=100"`
	City         string `json:"city" validate:"required,max=50"`
	State        string `json:"state" validate:"required,max=50"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country" validate:"required,max=50"`
	IsDefault    bool   `json:"is_default"`
}

type methodRequest struct {
	Name                string   `json:"name" validate:"required,max=50"`
	Description         string   `json:"description" validate:"required,max=200"`
	BasePrice           float64  `json:"base_price" validate:"gte=0"`
	PricePerKg          float64  `json:"price_per_kg" validate:"gte=0"`
	EstimatedDaysMin    int      `json:"estimated_days_min" validate:"required,gte=1"`
	EstimatedDaysMax    int      `json:"estimated_days_max" validate:"required,gte=1"`
	MaxWeight           float64  `json:"max_weight" validate:"required,gte=0"`
	MaxLength           float64  `json:"max_length" validate:"omitempty,gte=0"`
	MaxWidth            float64  `json:"max_width" validate:"omitempty,gte=0"`
	MaxHeight           float64  `json:"max_height" validate:"omitempty,gte=0"`
	RestrictedCountries []string `json:"restricted_countries,omitempty"`
	IsActive            bool     `json:"is_active"`
}

type createOrderRequest struct {
	OrderID   string  `json:"order_id" validate:"required"`
	AddressID string  `json:"shipping_address_id" validate:"required"`
	MethodID  string  `json:"shipping_method_id" validate:"required"`
	Weight    float64 `json:"weight" validate:"gte=0"`
	Length    float64 `json:"length" validate:"gte=0"`
	Width     float64 `json:"width" validate:"gte=0"`
	Height    float64 `json:"height" validate:"gte=0"`
	Notes     string  `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped in_transit delivered failed returned"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (r methodRequest) toInput() usecase.MethodInput {
	return usecase.MethodInput{
		Name:             r.Name,
		Description:      r.Description,
		BasePrice:        r.BasePrice,
		PricePerKg:       r.PricePerKg,
		EstimatedDaysMin: r.EstimatedDaysMin,
		EstimatedDaysMax: r.EstimatedDaysMax,
		MaxWeight:        r.MaxWeight,
		MaxDimensions: entity.PackageDimensions{
			Length: r.MaxLength,
			Width:  r.MaxWidth,
			Height: r.MaxHeight,
		},
		RestrictedCountries: r.RestrictedCountries,
		IsActive:            r.IsActive,
	}
}

func (r addressRequest) toInput() usecase.AddressInput {
	return usecase.AddressInput{
		FullName:     r.FullName,
		PhoneNumber:  r.PhoneNumber,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		IsDefault:    r.IsDefault,
	}
}

// CreateAddress stores a shipping address for the authenticated user.
func (h *ShippingHandler) CreateAddress(c echo.Context) error {
	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	address, err := h.shippingUseCase.CreateAddress(c.Request().Context(), userID, req.toInput())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, address)
}

func (h *ShippingHandler) ListAddresses(c echo.Context) error {
	userID := c.Get("uid").(string)

	addresses, err := h.shippingUseCase.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, addresses)
}

func (h *ShippingHandler) UpdateAddress(c echo.Context) error {
	addressID := c.Param("id")

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	address, err := h.shippingUseCase.UpdateAddress(c.Request().Context(), userID, addressID, req.toInput())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, address)
}

func (h *ShippingHandler) DeleteAddress(c echo.Context) error {
	addressID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.shippingUseCase.DeleteAddress(c.Request().Context(), userID, addressID); err != nil {
		return response.Error(c, err)
	}

	return response.Message(c, "Shipping address deleted")
}

func (h *ShippingHandler) SetDefaultAddress(c echo.Context) error {
	addressID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.shippingUseCase.SetDefaultAddress(c.Request().Context(), userID, addressID); err != nil {
		return response.Error(c, err)
	}

	return response.Message(c, "Default shipping address updated")
}

// ListMethods returns the active shipping methods.
func (h *ShippingHandler) ListMethods(c echo.Context) error {
	methods, err := h.shippingUseCase.ListMethods(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, methods)
}

// CreateMethod registers a shipping method. Admin only.
func (h *ShippingHandler) CreateMethod(c echo.Context) error {
	var req methodRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	method, err := h.shippingUseCase.CreateMethod(c.Request().Context(), req.toInput())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, method)
}

// UpdateMethod edits a shipping method. Admin only.
func (h *ShippingHandler) UpdateMethod(c echo.Context) error {
	methodID := c.Param("id")

	var req methodRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	method, err := h.shippingUseCase.UpdateMethod(c.Request().Context(), methodID, req.toInput())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, method)
}

// CreateOrder places a shipping order for the authenticated user.
func (h *ShippingHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	order, err := h.shippingUseCase.CreateOrder(c.Request().Context(), userID, usecase.CreateOrderInput{
		OrderID:   req.OrderID,
		AddressID: req.AddressID,
		MethodID:  req.MethodID,
		Package: entity.PackageDetails{
			Weight: req.Weight,
			Dimensions: entity.PackageDimensions{
				Length: req.Length,
				Width:  req.Width,
				Height: req.Height,
			},
		},
		Notes: req.Notes,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, order)
}

func (h *ShippingHandler) GetOrder(c echo.Context) error {
	orderID := c.Param("id")
	userID := c.Get("uid").(string)

	order, err := h.shippingUseCase.GetOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

func (h *ShippingHandler) ListOrders(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, h.pageSize, h.pageSizeMax)

	orders, total, err := h.shippingUseCase.ListOrders(c.Request().Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, orders, total, params.Page, params.PageSize)
}

// UpdateOrderStatus moves an order along the shipping state machine.
// Staff only.
func (h *ShippingHandler) UpdateOrderStatus(c echo.Context) error {
	orderID := c.Param("id")

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.shippingUseCase.UpdateStatus(c.Request().Context(), orderID, entity.ShippingStatus(req.Status), req.Note)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

// EstimateDelivery recomputes an order's estimated delivery date.
func (h *ShippingHandler) EstimateDelivery(c echo.Context) error {
	orderID := c.Param("id")

	order, err := h.shippingUseCase.EstimateDelivery(c.Request().Context(), orderID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}
