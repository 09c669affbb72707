package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type EntryEntity struct {
	// Spec key.
	ID              string              `bson:"_id"`
	ProductType     string              `bson:"product_type"`
	Size            string              `bson:"size"`
	Thickness       string              `bson:"thickness"`
	Available       bson.Decimal128     `bson:"available_quantity"`
	MinLevel        bson.Decimal128     `bson:"min_level"`
	MaxLevel        bson.Decimal128     `bson:"max_level"`
	LastTransaction *TransactionEntity  `bson:"last_transaction,omitempty"`
	Transactions    []TransactionEntity `bson:"transactions,omitempty"`
	Version         int64               `bson:"version"`
	UpdatedAt       time.Time           `bson:"updated_at"`
}

type TransactionEntity struct {
	Type        string          `bson:"type"`
	Quantity    bson.Decimal128 `bson:"quantity"`
	OldQuantity bson.Decimal128 `bson:"old_quantity"`
	NewQuantity bson.Decimal128 `bson:"new_quantity"`
	Reference   string          `bson:"reference,omitempty"`
	Remarks     string          `bson:"remarks,omitempty"`
	CreatedAt   time.Time       `bson:"created_at"`
}
