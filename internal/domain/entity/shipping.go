package entity

import (
	"fmt"
	"time"
)

type ShippingStatus string

const (
	ShippingPending    ShippingStatus = "pending"
	ShippingProcessing ShippingStatus = "processing"
	ShippingShipped    ShippingStatus = "shipped"
	ShippingInTransit  ShippingStatus = "in_transit"
	ShippingDelivered  ShippingStatus = "delivered"
	ShippingFailed     ShippingStatus = "failed"
	ShippingReturned   ShippingStatus = "returned"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingPending, ShippingProcessing, ShippingShipped, ShippingInTransit,
		ShippingDelivered, ShippingFailed, ShippingReturned:
		return true
	}
	return false
}

// shippingTransitions is the forward-only order state machine. Delivered and
// returned are terminal; a failed delivery may still come back as returned.
var shippingTransitions = map[ShippingStatus][]ShippingStatus{
	ShippingPending:    {ShippingProcessing, ShippingFailed},
	ShippingProcessing: {ShippingShipped, ShippingFailed},
	ShippingShipped:    {ShippingInTransit, ShippingFailed},
	ShippingInTransit:  {ShippingDelivered, ShippingFailed, ShippingReturned},
	ShippingFailed:     {ShippingReturned},
}

// CanTransition reports whether the state machine allows moving to next.
func (s ShippingStatus) CanTransition(next ShippingStatus) bool {
	for _, allowed := range shippingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type StatusEntry struct {
	Status    ShippingStatus `json:"status" firestore:"status"`
	Timestamp time.Time      `json:"timestamp" firestore:"timestamp"`
	Note      string         `json:"note,omitempty" firestore:"note,omitempty"`
}

type PackageDimensions struct {
	Length float64 `json:"length" firestore:"length"`
	Width  float64 `json:"width" firestore:"width"`
	Height float64 `json:"height" firestore:"height"`
}

type PackageDetails struct {
	Weight     float64           `json:"weight" firestore:"weight"`
	Dimensions PackageDimensions `json:"dimensions" firestore:"dimensions"`
}

type ShippingOrder struct {
	ID                    string         `json:"id" firestore:"id"`
	OrderID               string         `json:"order_id" firestore:"orderId"`
	UserID                string         `json:"user_id" firestore:"userId"`
	AddressID             string         `json:"shipping_address_id" firestore:"shippingAddressId"`
	MethodID              string         `json:"shipping_method_id" firestore:"shippingMethodId"`
	TrackingNumber        string         `json:"tracking_number,omitempty" firestore:"trackingNumber,omitempty"`
	Status                ShippingStatus `json:"status" firestore:"status"`
	StatusHistory         []StatusEntry  `json:"status_history" firestore:"statusHistory"`
	PackageDetails        PackageDetails `json:"package_details" firestore:"packageDetails"`
	ShippingCost          float64        `json:"shipping_cost" firestore:"shippingCost"`
	EstimatedDeliveryDate *time.Time     `json:"estimated_delivery_date,omitempty" firestore:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time     `json:"actual_delivery_date,omitempty" firestore:"actualDeliveryDate,omitempty"`
	Notes                 string         `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt             time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt             time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// ApplyStatus moves the order to newStatus and appends the history entry.
// The transition table is enforced: an illegal move leaves the order
// untouched and returns the entry it would have written alongside an error.
func (o *ShippingOrder) ApplyStatus(newStatus ShippingStatus, note string, now time.Time) (StatusEntry, error) {
	if !newStatus.Valid() {
		return StatusEntry{}, fmt.Errorf("unknown shipping status %q", newStatus)
	}
	if !o.Status.CanTransition(newStatus) {
		return StatusEntry{}, fmt.Errorf("cannot transition shipping order from %s to %s", o.Status, newStatus)
	}
	entry := StatusEntry{Status: newStatus, Timestamp: now, Note: note}
	o.Status = newStatus
	o.StatusHistory = append(o.StatusHistory, entry)
	o.UpdatedAt = now
	if newStatus == ShippingDelivered {
		o.ActualDeliveryDate = &now
	}
	return entry, nil
}

type EstimatedDays struct {
	Min int `json:"min" firestore:"min"`
	Max int `json:"max" firestore:"max"`
}

type MethodRestrictions struct {
	MaxWeight           float64           `json:"max_weight" firestore:"maxWeight"`
	MaxDimensions       PackageDimensions `json:"max_dimensions" firestore:"maxDimensions"`
	RestrictedCountries []string          `json:"restricted_countries,omitempty" firestore:"restrictedCountries,omitempty"`
}

type ShippingMethod struct {
	ID            string             `json:"id" firestore:"id"`
	Name          string             `json:"name" firestore:"name"`
	Description   string             `json:"description" firestore:"description"`
	BasePrice     float64            `json:"base_price" firestore:"basePrice"`
	PricePerKg    float64            `json:"price_per_kg" firestore:"pricePerKg"`
	EstimatedDays EstimatedDays      `json:"estimated_days" firestore:"estimatedDays"`
	IsActive      bool               `json:"is_active" firestore:"isActive"`
	Restrictions  MethodRestrictions `json:"restrictions" firestore:"restrictions"`
	CreatedAt     time.Time          `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time          `json:"updated_at" firestore:"updatedAt"`
}

// CalculateCost prices a package: basePrice + weight * pricePerKg.
// Packages over the method's weight limit are rejected.
func (m *ShippingMethod) CalculateCost(weight float64) (float64, error) {
	if weight < 0 {
		return 0, fmt.Errorf("package weight cannot be negative")
	}
	if weight > m.Restrictions.MaxWeight {
		return 0, fmt.Errorf("package weight %.2f exceeds maximum allowed weight %.2f", weight, m.Restrictions.MaxWeight)
	}
	return m.BasePrice + weight*m.PricePerKg, nil
}

// EstimateDelivery projects the delivery date from the method's day range.
// Only the upper bound is used; the lower bound exists for display.
func (m *ShippingMethod) EstimateDelivery(from time.Time) time.Time {
	return from.AddDate(0, 0, m.EstimatedDays.Max)
}

// AllowsCountry reports whether the method ships to the given country.
func (m *ShippingMethod) AllowsCountry(country string) bool {
	for _, c := range m.Restrictions.RestrictedCountries {
		if c == country {
			return false
		}
	}
	return true
}

// FitsDimensions reports whether a package fits the method's size limits.
// A zero limit on an axis means unrestricted.
func (m *ShippingMethod) FitsDimensions(d PackageDimensions) bool {
	max := m.Restrictions.MaxDimensions
	if max.Length > 0 && d.Length > max.Length {
		return false
	}
	if max.Width > 0 && d.Width > max.Width {
		return false
	}
	if max.Height > 0 && d.Height > max.Height {
		return false
	}
	return true
}

type ShippingAddress struct {
	ID           string    `json:"id" firestore:"id"`
	UserID       string    `json:"user_id" firestore:"userId"`
	FullName     string    `json:"full_name" firestore:"fullName"`
	PhoneNumber  string    `json:"phone_number" firestore:"phoneNumber"`
	AddressLine1 string    `json:"address_line1" firestore:"addressLine1"`
	AddressLine2 string    `json:"address_line2,omitempty" firestore:"addressLine2,omitempty"`
	City         string    `json:"city" firestore:"city"`
	State        string    `json:"state" firestore:"state"`
	PostalCode   string    `json:"postal_code" firestore:"postalCode"`
	Country      string    `json:"country" firestore:"country"`
	IsDefault    bool      `json:"is_default" firestore:"isDefault"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}
