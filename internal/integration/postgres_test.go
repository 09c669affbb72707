//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	pgdispatch "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/dispatch/postgres"
	pgstock "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/stock/postgres"
	dispatchsvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/dispatch"
	ordersvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/order"
	stocksvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/stock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
)

func q(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func fakeSpec() model.ProductSpec {
	return model.NewProductSpec(
		gofakeit.RandomString([]string{"MS Round Tube", "MS Square Tube", "GI Pipe"}),
		gofakeit.RandomString([]string{"25mm", "32mm", "40x40"}),
		gofakeit.RandomString([]string{"1.6mm", "2.0mm", "2.5mm"}),
	)
}

type stockService interface {
	stocksvc.Seeder
	dispatchsvc.StockLedger
	Increment(ctx context.Context, m model.StockMovement) (*model.StockChange, error)
	Adjust(ctx context.Context, m model.StockMovement) (*model.StockChange, error)
	Transactions(ctx context.Context, spec model.ProductSpec, limit int) ([]model.StockTransaction, error)
}

type postgresStack struct {
	stock  stockService
	orders interface {
		Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error)
		Decide(ctx context.Context, params model.DecideOrderParams) (*model.Order, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	}
	dispatches interface {
		Dispatch(ctx context.Context, orderID uuid.UUID, lines []model.DispatchRequestLine) (*model.DispatchResult, error)
		Execute(ctx context.Context, id uuid.UUID, actor string) (*model.DispatchResult, error)
		Get(ctx context.Context, id uuid.UUID) (*model.DispatchRecord, error)
	}
}

func newPostgresStack(events dispatchsvc.EventPublisher) *postgresStack {
	repo := pgdispatch.NewDispatchRepository(pool)
	stock := stocksvc.NewStockService(pgstock.NewStockRepository(pool), rec, dbTimeout, dbTimeout)
	locker := lock.NewKeyedMutex()

	return &postgresStack{
		stock:  stock,
		orders: ordersvc.NewOrderService(repo, locker, rec, dbTimeout, dbTimeout, dbTimeout),
		dispatches: dispatchsvc.NewDispatchService(repo, stock, locker, events, rec, dispatchsvc.Config{
			NumberPrefix:   "IT",
			LockTimeout:    dbTimeout,
			ReadDBTimeout:  dbTimeout,
			WriteDBTimeout: dbTimeout,
		}),
	}
}

func (s *postgresStack) order(spec model.ProductSpec, ordered string) *model.Order {
	ord, err := s.orders.Create(ctx, model.CreateOrderParams{
		Customer: gofakeit.Company(),
		Lines: []model.OrderLine{{
			Spec:            spec,
			OrderedQuantity: q(ordered),
			Rate:            q("72.50"),
			TaxRate:         q("18"),
		}},
	})
	Expect(err).NotTo(HaveOccurred())
	return ord
}

func (s *postgresStack) receive(spec model.ProductSpec, qty string) {
	_, err := s.stock.Increment(ctx, model.StockMovement{Spec: spec, Quantity: q(qty), Reference: "GRN-" + gofakeit.DigitN(5)})
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("Postgres dispatch store and stock ledger", func() {
	var s *postgresStack

	BeforeEach(func() {
		truncatePostgres()
		s = newPostgresStack(nil)
	})

	It("dispatches partially, continues after restock and completes the order", func() {
		spec := fakeSpec()
		ord := s.order(spec, "100")
		s.receive(spec, "60")

		By("dispatching what is on hand")
		res, err := s.dispatches.Dispatch(ctx, ord.ID, []model.DispatchRequestLine{{Spec: spec, Quantity: q("60")}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Primary.HumanNumber).To(MatchRegexp(`^IT-\d{4}-00001$`))
		Expect(res.Continuation).NotTo(BeNil())
		Expect(res.Continuation.Quantity().Equal(q("40"))).To(BeTrue())
		Expect(res.Order.Status).To(Equal(model.OrderPartialDispatch))

		By("checking the ledger and its audit rows")
		avail, err := s.stock.Available(ctx, spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(avail.IsZero()).To(BeTrue())

		var out int
		Expect(pool.QueryRow(ctx,
			`SELECT count(*) FROM stock_transactions WHERE spec_key = $1 AND type = 'out'`, spec.Key(),
		).Scan(&out)).To(Succeed())
		Expect(out).To(Equal(1))

		By("approving the order, which cascades to the continuation")
		_, err = s.orders.Decide(ctx, model.DecideOrderParams{OrderID: ord.ID, Decision: model.DecisionApproved, Approver: "manager"})
		Expect(err).NotTo(HaveOccurred())

		cont, err := s.dispatches.Get(ctx, res.Continuation.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(cont.Status).To(Equal(model.DispatchApproved))

		By("executing the continuation after restock")
		s.receive(spec, "40")
		done, err := s.dispatches.Execute(ctx, cont.ID, "warehouse")
		Expect(err).NotTo(HaveOccurred())
		Expect(done.Primary.Status).To(Equal(model.DispatchExecuted))
		Expect(done.Continuation).To(BeNil())
		Expect(done.Order.Status).To(Equal(model.OrderDispatched))
	})

	It("rejects oversell without touching stock or records", func() {
		spec := fakeSpec()
		ord := s.order(spec, "100")
		s.receive(spec, "60")

		_, err := s.dispatches.Dispatch(ctx, ord.ID, []model.DispatchRequestLine{{Spec: spec, Quantity: q("100")}})
		Expect(errors.Is(err, model.ErrInsufficientStock)).To(BeTrue())

		var records int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM dispatch_records WHERE order_id = $1`, ord.ID).Scan(&records)).To(Succeed())
		Expect(records).To(BeZero())

		avail, err := s.stock.Available(ctx, spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(avail.Equal(q("60"))).To(BeTrue())
	})

	It("never oversells one spec across concurrent orders", func() {
		spec := fakeSpec()
		s.receive(spec, "100")

		const orders = 8
		ids := make([]uuid.UUID, orders)
		for i := range ids {
			ids[i] = s.order(spec, "30").ID
		}

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
		)
		for _, id := range ids {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer GinkgoRecover()
				defer wg.Done()

				_, err := s.dispatches.Dispatch(ctx, id, []model.DispatchRequestLine{{Spec: spec, Quantity: q("30")}})
				if err == nil {
					succeeded.Add(1)
					return
				}
				Expect(errors.Is(err, model.ErrInsufficientStock)).To(BeTrue(), err.Error())
			}(id)
		}
		wg.Wait()

		Expect(succeeded.Load()).To(Equal(int32(3)))

		avail, err := s.stock.Available(ctx, spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(avail.Equal(q("10"))).To(BeTrue())
	})

	It("loads opening balances once", func() {
		balances := stocksvc.DefaultOpeningBalances()
		Expect(stocksvc.Bootstrap(ctx, s.stock, balances)).To(Succeed())
		Expect(stocksvc.Bootstrap(ctx, s.stock, balances)).To(Succeed())

		var entries int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM stock_entries`).Scan(&entries)).To(Succeed())
		Expect(entries).To(Equal(len(balances)))

		e, err := s.stock.Entry(ctx, balances[0].Spec)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.AvailableQuantity.Equal(balances[0].Quantity)).To(BeTrue())
	})
})
