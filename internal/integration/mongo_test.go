//go:build integration

package integration

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	mongostock "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/stock/mongo"
	stocksvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/stock"
)

var _ = Describe("Mongo stock ledger", func() {
	var (
		coll  *mongo.Collection
		stock stockService
	)

	BeforeEach(func() {
		coll = mongoC.Database().Collection("stock_entries")
		_, err := coll.DeleteMany(ctx, bson.M{})
		Expect(err).NotTo(HaveOccurred())
		Expect(mongostock.EnsureIndexes(ctx, coll)).To(Succeed())

		stock = stocksvc.NewStockService(mongostock.NewStockRepository(coll), rec, dbTimeout, dbTimeout)
	})

	It("keeps the entry document and its audit trail in step", func() {
		spec := fakeSpec()

		_, err := stock.Increment(ctx, model.StockMovement{Spec: spec, Quantity: q("50"), Reference: "GRN-1"})
		Expect(err).NotTo(HaveOccurred())

		changes, err := stock.DecrementBatch(ctx, []model.StockMovement{{Spec: spec, Quantity: q("20.5"), Reference: "DO-1"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(changes).To(HaveLen(1))
		Expect(changes[0].NewQuantity.Equal(q("29.5"))).To(BeTrue())

		txs, err := stock.Transactions(ctx, spec, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(txs).To(HaveLen(2))
		Expect(txs[0].Type).To(Equal(model.TransactionOut))

		var doc mongostock.EntryEntity
		Expect(coll.FindOne(ctx, bson.M{"_id": spec.Key()}).Decode(&doc)).To(Succeed())
		Expect(doc.Available.String()).To(Equal("29.50"))
	})

	It("rolls back the applied part of a failed batch", func() {
		enough, short := fakeSpec(), model.NewProductSpec("Zinc Strip", "10mm", "1mm")

		_, err := stock.IncrementBatch(ctx, []model.StockMovement{
			{Spec: enough, Quantity: q("40")},
			{Spec: short, Quantity: q("5")},
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = stock.DecrementBatch(ctx, []model.StockMovement{
			{Spec: enough, Quantity: q("10")},
			{Spec: short, Quantity: q("6")},
		})
		var insufficient *model.InsufficientStockError
		Expect(errors.As(err, &insufficient)).To(BeTrue())
		Expect(insufficient.Spec).To(Equal(short))

		avail, err := stock.Available(ctx, enough)
		Expect(err).NotTo(HaveOccurred())
		Expect(avail.Equal(q("40"))).To(BeTrue())
	})

	It("serializes concurrent decrements of one spec", func() {
		spec := fakeSpec()
		_, err := stock.Increment(ctx, model.StockMovement{Spec: spec, Quantity: q("100")})
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				_, err := stock.DecrementBatch(ctx, []model.StockMovement{{Spec: spec, Quantity: q("15")}})
				if err != nil {
					Expect(errors.Is(err, model.ErrInsufficientStock)).To(BeTrue(), err.Error())
				}
			}()
		}
		wg.Wait()

		avail, err := stock.Available(ctx, spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(avail.Equal(q("10"))).To(BeTrue())
	})
})
