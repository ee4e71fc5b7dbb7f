package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSummarize(t *testing.T) {
	notebookID := primitive.NewObjectID()
	penID := primitive.NewObjectID()

	products := map[primitive.ObjectID]ProductWithCategory{
		notebookID: {Product: Product{ID: notebookID, Title: "Notebook", Price: 250}},
		penID:      {Product: Product{ID: penID, Title: "Pen", Price: 50}},
	}
	items := []CartItem{
		{ProductID: notebookID, Quantity: 2, AddedAt: time.Now()},
		{ProductID: penID, Quantity: 5, AddedAt: time.Now()},
	}

	summary := Summarize(items, products)

	assert.Len(t, summary.Items, 2)
	assert.Equal(t, 7, summary.TotalItems)
	assert.Equal(t, 750.0, summary.TotalValue)
	assert.Equal(t, 500.0, summary.Items[0].LineTotal)
	assert.Equal(t, 250.0, summary.Items[1].LineTotal)
}

func TestSummarizeSkipsMissingProducts(t *testing.T) {
	knownID := primitive.NewObjectID()
	goneID := primitive.NewObjectID()

	products := map[primitive.ObjectID]ProductWithCategory{
		knownID: {Product: Product{ID: knownID, Price: 100}},
	}
	items := []CartItem{
		{ProductID: knownID, Quantity: 1},
		{ProductID: goneID, Quantity: 3},
	}

	summary := Summarize(items, products)

	assert.Len(t, summary.Items, 1)
	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, 100.0, summary.TotalValue)
}

func TestSummarizeEmptyCart(t *testing.T) {
	summary := Summarize(nil, nil)

	assert.NotNil(t, summary.Items)
	assert.Empty(t, summary.Items)
	assert.Equal(t, 0, summary.TotalItems)
	assert.Equal(t, 0.0, summary.TotalValue)
}
