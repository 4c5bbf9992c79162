package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCost(t *testing.T) {
	method := &ShippingMethod{
		BasePrice:    10,
		PricePerKg:   2,
		Restrictions: MethodRestrictions{MaxWeight: 10},
	}

	cost, err := method.CalculateCost(5)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, cost)
}

func TestCalculateCostRejectsOverweightPackage(t *testing.T) {
	method := &ShippingMethod{
		BasePrice:    10,
		PricePerKg:   2,
		Restrictions: MethodRestrictions{MaxWeight: 10},
	}

	_, err := method.CalculateCost(15)
	assert.Error(t, err)

	_, err = method.CalculateCost(-1)
	assert.Error(t, err)
}

func TestEstimateDeliveryUsesUpperBound(t *testing.T) {
	method := &ShippingMethod{
		EstimatedDays: EstimatedDays{Min: 2, Max: 5},
	}

	from := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, from.AddDate(0, 0, 5), method.EstimateDelivery(from))
}

func TestAllowsCountry(t *testing.T) {
	method := &ShippingMethod{
		Restrictions: MethodRestrictions{RestrictedCountries: []string{"XX", "YY"}},
	}

	assert.True(t, method.AllowsCountry("US"))
	assert.False(t, method.AllowsCountry("XX"))
}

func TestFitsDimensions(t *testing.T) {
	method := &ShippingMethod{
		Restrictions: MethodRestrictions{
			MaxDimensions: PackageDimensions{Length: 100, Width: 50},
		},
	}

	assert.True(t, method.FitsDimensions(PackageDimensions{Length: 80, Width: 40, Height: 200}))
	assert.False(t, method.FitsDimensions(PackageDimensions{Length: 120, Width: 40}))
	assert.False(t, method.FitsDimensions(PackageDimensions{Length: 80, Width: 60}))
}

func TestApplyStatusAppendsHistory(t *testing.T) {
	now := time.Now()
	order := &ShippingOrder{Status: ShippingPending}

	entry, err := order.ApplyStatus(ShippingProcessing, "picked up", now)
	assert.NoError(t, err)
	assert.Equal(t, ShippingProcessing, entry.Status)
	assert.Equal(t, "picked up", entry.Note)

	assert.Equal(t, ShippingProcessing, order.Status)
	assert.Len(t, order.StatusHistory, 1)
	assert.Equal(t, order.Status, order.StatusHistory[len(order.StatusHistory)-1].Status)
}

func TestApplyStatusRejectsIllegalTransition(t *testing.T) {
	now := time.Now()
	order := &ShippingOrder{Status: ShippingPending}

	_, err := order.ApplyStatus(ShippingDelivered, "", now)
	assert.Error(t, err)
	assert.Equal(t, ShippingPending, order.Status)
	assert.Empty(t, order.StatusHistory)

	_, err = order.ApplyStatus("teleported", "", now)
	assert.Error(t, err)
}

func TestApplyStatusDeliveredStampsActualDate(t *testing.T) {
	now := time.Now()
	order := &ShippingOrder{Status: ShippingPending}

	steps := []ShippingStatus{ShippingProcessing, ShippingShipped, ShippingInTransit, ShippingDelivered}
	for _, s := range steps {
		_, err := order.ApplyStatus(s, "", now)
		assert.NoError(t, err)
	}

	assert.Len(t, order.StatusHistory, 4)
	if assert.NotNil(t, order.ActualDeliveryDate) {
		assert.Equal(t, now, *order.ActualDeliveryDate)
	}
}

func TestDeliveredAndReturnedAreTerminal(t *testing.T) {
	assert.False(t, ShippingDelivered.CanTransition(ShippingReturned))
	assert.False(t, ShippingDelivered.CanTransition(ShippingPending))
	assert.False(t, ShippingReturned.CanTransition(ShippingFailed))
	assert.True(t, ShippingFailed.CanTransition(ShippingReturned))
}
