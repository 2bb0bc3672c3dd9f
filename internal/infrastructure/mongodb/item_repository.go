package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación del puerto ItemRepository sobre una colección MongoDB.
type ItemRepo struct {
	coll *mongo.Collection
}

// NewItemRepository construye el adaptador.
func NewItemRepository(coll *mongo.Collection) *ItemRepo {
	return &ItemRepo{coll: coll}
}

// EnsureIndexes crea el índice único de barcode y el de orden de creación.
func (r *ItemRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "barcode", Value: 1}}, Options: options.Index().SetUnique(true).SetName("barcode_unique")},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("created_at")},
	})
	if err != nil {
		return fmt.Errorf("crear índices: %w", err)
	}
	return nil
}

// Create inserta el ítem con un UUID como _id.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) (string, error) {
	doc, err := toDocument(item)
	if err != nil {
		return "", domain.NewValidationError("amount", err.Error())
	}
	doc.ID = uuid.NewString()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrConflict
		}
		return "", domain.Transient("insert item", err)
	}
	item.ID = doc.ID
	return doc.ID, nil
}

// GetByID nil, nil si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	var doc itemDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, domain.Transient("get item", err)
	}
	return doc.toEntity()
}

// Update reemplaza los campos editables.
func (r *ItemRepo) Update(ctx context.Context, id string, f entity.ItemFields, updatedAt time.Time) error {
	doc, err := toDocument(&entity.Item{ItemFields: f})
	if err != nil {
		return domain.NewValidationError("amount", err.Error())
	}
	set := bson.M{
		"text":           doc.Text,
		"college":        doc.College,
		"quantity":       doc.Quantity,
		"amount":         doc.Amount,
		"requested_date": doc.RequestedDate,
		"supplier":       doc.Supplier,
		"item_type":      doc.ItemType,
		"updated_at":     updatedAt,
	}
	update := bson.M{"$set": set}
	if doc.Image != nil {
		set["image"] = *doc.Image
	} else {
		update["$unset"] = bson.M{"image": ""}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return domain.Transient("update item", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateQuantity compare-and-swap: el filtro incluye la cantidad observada.
func (r *ItemRepo) UpdateQuantity(ctx context.Context, id string, expected, quantity int, updatedAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "quantity": expected},
		bson.M{"$set": bson.M{"quantity": quantity, "updated_at": updatedAt}},
	)
	if err != nil {
		return domain.Transient("update item quantity", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

// Delete idempotente.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return domain.Transient("delete item", err)
	}
	return nil
}

// DeleteIfQuantity borra solo si la cantidad almacenada es expected.
func (r *ItemRepo) DeleteIfQuantity(ctx context.Context, id string, expected int) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "quantity": expected})
	if err != nil {
		return domain.Transient("delete item", err)
	}
	if res.DeletedCount == 0 {
		return r.missOrStale(ctx, id)
	}
	return nil
}

// ListAll todos los ítems en orden de creación.
func (r *ItemRepo) ListAll(ctx context.Context) ([]*entity.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.Transient("list items", err)
	}
	defer cur.Close(ctx)

	list := make([]*entity.Item, 0)
	for cur.Next(ctx) {
		var doc itemDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		it, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Transient("list items", err)
	}
	return list, nil
}

func (r *ItemRepo) missOrStale(ctx context.Context, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return domain.Transient("check item", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrStaleWrite
}
