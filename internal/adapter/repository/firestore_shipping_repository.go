package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dermacare/internal/domain/entity"
	"dermacare/internal/domain/repository"
	"dermacare/pkg/errors"
	"dermacare/pkg/logger"
)

const (
	addressesCollection = "shipping_addresses"
	methodsCollection   = "shipping_methods"
	ordersCollection    = "shipping_orders"
)

type firestoreShippingRepository struct {
	client *firestore.Client
}

func NewFirestoreShippingRepository(client *firestore.Client) repository.ShippingRepository {
	return &firestoreShippingRepository{
		client: client,
	}
}

func (r *firestoreShippingRepository) CreateAddress(ctx context.Context, address *entity.ShippingAddress) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}

	now := time.Now()
	address.CreatedAt = now
	address.UpdatedAt = now

	addressRef := r.client.Collection(addressesCollection).Doc(address.ID)

	if !address.IsDefault {
		if _, err := addressRef.Set(ctx, address); err != nil {
			return errors.Internal("Failed to create shipping address", err)
		}
		return nil
	}

	// A default address displaces the previous default in the same
	// transaction, so two defaults can never coexist.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		others, err := r.defaultAddressRefs(tx, address.UserID)
		if err != nil {
			return err
		}
		for _, ref := range others {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "isDefault", Value: false},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}
		return tx.Set(addressRef, address)
	})
	if err != nil {
		return errors.Internal("Failed to create shipping address", err)
	}

	return nil
}

func (r *firestoreShippingRepository) defaultAddressRefs(tx *firestore.Transaction, userID string) ([]*firestore.DocumentRef, error) {
	query := r.client.Collection(addressesCollection).
		Where("userId", "==", userID).
		Where("isDefault", "==", true)

	docs, err := tx.Documents(query).GetAll()
	if err != nil {
		return nil, err
	}

	refs := make([]*firestore.DocumentRef, 0, len(docs))
	for _, doc := range docs {
		refs = append(refs, doc.Ref)
	}
	return refs, nil
}

func (r *firestoreShippingRepository) GetAddressByID(ctx context.Context, id string) (*entity.ShippingAddress, error) {
	doc, err := r.client.Collection(addressesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Shipping address", err)
		}
		return nil, errors.Internal("Failed to get shipping address", err)
	}

	var address entity.ShippingAddress
	if err := doc.DataTo(&address); err != nil {
		return nil, errors.Internal("Failed to parse shipping address data", err)
	}
	address.ID = doc.Ref.ID

	return &address, nil
}

func (r *firestoreShippingRepository) ListAddressesByUser(ctx context.Context, userID string) ([]*entity.ShippingAddress, error) {
	iter := r.client.Collection(addressesCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)

	var addresses []*entity.ShippingAddress
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list shipping addresses", err)
		}

		var address entity.ShippingAddress
		if err := doc.DataTo(&address); err != nil {
			logger.Warn("Skipping malformed shipping address %s: %v", doc.Ref.ID, err)
			continue
		}
		address.ID = doc.Ref.ID
		addresses = append(addresses, &address)
	}

	return addresses, nil
}

func (r *firestoreShippingRepository) UpdateAddress(ctx context.Context, address *entity.ShippingAddress) error {
	address.UpdatedAt = time.Now()

	_, err := r.client.Collection(addressesCollection).Doc(address.ID).Set(ctx, address)
	if err != nil {
		return errors.Internal("Failed to update shipping address", err)
	}

	return nil
}

func (r *firestoreShippingRepository) DeleteAddress(ctx context.Context, id string) error {
	_, err := r.client.Collection(addressesCollection).Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete shipping address", err)
	}

	return nil
}

func (r *firestoreShippingRepository) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	addressRef := r.client.Collection(addressesCollection).Doc(addressID)
	now := time.Now()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(addressRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Shipping address", err)
			}
			return err
		}

		var address entity.ShippingAddress
		if err := doc.DataTo(&address); err != nil {
			return err
		}
		if address.UserID != userID {
			return errors.Forbidden("You do not have permission to modify this address", nil)
		}

		others, err := r.defaultAddressRefs(tx, userID)
		if err != nil {
			return err
		}
		for _, ref := range others {
			if ref.ID == addressID {
				continue
			}
			if err := tx.Update(ref, []firestore.Update{
				{Path: "isDefault", Value: false},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}

		return tx.Update(addressRef, []firestore.Update{
			{Path: "isDefault", Value: true},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("Failed to set default shipping address", err)
	}

	return nil
}

func (r *firestoreShippingRepository) CreateMethod(ctx context.Context, method *entity.ShippingMethod) error {
	if method.ID == "" {
		method.ID = uuid.New().String()
	}

	now := time.Now()
	method.CreatedAt = now
	method.UpdatedAt = now

	methodRef := r.client.Collection(methodsCollection).Doc(method.ID)

	// Method names are unique reference data. The lookup and the write
	// commit together, so two racing creates cannot both claim a name.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := r.client.Collection(methodsCollection).Where("name", "==", method.Name).Limit(1)
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return errors.Conflict("A shipping method with this name already exists")
		}
		return tx.Set(methodRef, method)
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("Failed to create shipping method", err)
	}

	return nil
}

func (r *firestoreShippingRepository) GetMethodByID(ctx context.Context, id string) (*entity.ShippingMethod, error) {
	doc, err := r.client.Collection(methodsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Shipping method", err)
		}
		return nil, errors.Internal("Failed to get shipping method", err)
	}

	var method entity.ShippingMethod
	if err := doc.DataTo(&method); err != nil {
		return nil, errors.Internal("Failed to parse shipping method data", err)
	}
	method.ID = doc.Ref.ID

	return &method, nil
}

func (r *firestoreShippingRepository) ListActiveMethods(ctx context.Context) ([]*entity.ShippingMethod, error) {
	iter := r.client.Collection(methodsCollection).
		Where("isActive", "==", true).
		Documents(ctx)

	var methods []*entity.ShippingMethod
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list shipping methods", err)
		}

		var method entity.ShippingMethod
		if err := doc.DataTo(&method); err != nil {
			logger.Warn("Skipping malformed shipping method %s: %v", doc.Ref.ID, err)
			continue
		}
		method.ID = doc.Ref.ID
		methods = append(methods, &method)
	}

	return methods, nil
}

func (r *firestoreShippingRepository) UpdateMethod(ctx context.Context, method *entity.ShippingMethod) error {
	method.UpdatedAt = time.Now()
	methodRef := r.client.Collection(methodsCollection).Doc(method.ID)

	// A rename must not collide with another method's name.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(methodRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Shipping method", err)
			}
			return err
		}

		query := r.client.Collection(methodsCollection).Where("name", "==", method.Name)
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if doc.Ref.ID != method.ID {
				return errors.Conflict("A shipping method with this name already exists")
			}
		}

		return tx.Set(methodRef, method)
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("Failed to update shipping method", err)
	}

	return nil
}

func (r *firestoreShippingRepository) CreateOrder(ctx context.Context, order *entity.ShippingOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.client.Collection(ordersCollection).Doc(order.ID).Set(ctx, order)
	if err != nil {
		return errors.Internal("Failed to create shipping order", err)
	}

	return nil
}

func (r *firestoreShippingRepository) GetOrderByID(ctx context.Context, id string) (*entity.ShippingOrder, error) {
	doc, err := r.client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Shipping order", err)
		}
		return nil, errors.Internal("Failed to get shipping order", err)
	}

	var order entity.ShippingOrder
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse shipping order data", err)
	}
	order.ID = doc.Ref.ID

	return &order, nil
}

func (r *firestoreShippingRepository) ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.ShippingOrder, int64, error) {
	query := r.client.Collection(ordersCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing orders for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to list shipping orders", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var orders []*entity.ShippingOrder
	for i := start; i < end; i++ {
		var order entity.ShippingOrder
		if err := allDocs[i].DataTo(&order); err != nil {
			logger.Warn("Skipping malformed shipping order %s: %v", allDocs[i].Ref.ID, err)
			continue
		}
		order.ID = allDocs[i].Ref.ID
		orders = append(orders, &order)
	}

	return orders, total, nil
}

func (r *firestoreShippingRepository) AppendOrderStatus(ctx context.Context, order *entity.ShippingOrder, entry entity.StatusEntry) error {
	// History entries are append-only; ArrayUnion keeps concurrent updates
	// from overwriting each other's entries.
	updates := []firestore.Update{
		{Path: "status", Value: order.Status},
		{Path: "statusHistory", Value: firestore.ArrayUnion(entry)},
		{Path: "updatedAt", Value: order.UpdatedAt},
	}
	if order.TrackingNumber != "" {
		updates = append(updates, firestore.Update{Path: "trackingNumber", Value: order.TrackingNumber})
	}
	if order.ActualDeliveryDate != nil {
		updates = append(updates, firestore.Update{Path: "actualDeliveryDate", Value: *order.ActualDeliveryDate})
	}

	_, err := r.client.Collection(ordersCollection).Doc(order.ID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Shipping order", err)
		}
		return errors.Internal("Failed to update shipping order status", err)
	}

	return nil
}

func (r *firestoreShippingRepository) UpdateOrderEstimate(ctx context.Context, order *entity.ShippingOrder) error {
	updates := []firestore.Update{
		{Path: "estimatedDeliveryDate", Value: order.EstimatedDeliveryDate},
		{Path: "updatedAt", Value: time.Now()},
	}

	_, err := r.client.Collection(ordersCollection).Doc(order.ID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Shipping order", err)
		}
		return errors.Internal("Failed to update shipping order estimate", err)
	}

	return nil
}
