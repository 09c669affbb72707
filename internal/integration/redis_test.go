//go:build integration

package integration

import (
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	pgdispatch "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/dispatch/postgres"
	ordersvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/order"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
)

var _ = Describe("Redis order lock", func() {
	var locker *lock.RedisLocker

	BeforeEach(func() {
		Expect(redisC.Client().FlushAll(ctx).Err()).To(Succeed())
		locker = lock.NewRedisLocker(redisC.Client(), "it:lock:", 5*time.Second)
	})

	It("excludes a second holder until release", func() {
		key := "order:" + uuid.NewString()

		release, err := locker.Lock(ctx, key, time.Second)
		Expect(err).NotTo(HaveOccurred())

		_, err = locker.Lock(ctx, key, 200*time.Millisecond)
		Expect(errors.Is(err, lock.ErrTimeout)).To(BeTrue())

		release()
		release()

		again, err := locker.Lock(ctx, key, time.Second)
		Expect(err).NotTo(HaveOccurred())
		again()
	})

	It("lets an expired holder's release leave the new holder alone", func() {
		short := lock.NewRedisLocker(redisC.Client(), "it:lock:", 100*time.Millisecond)
		key := "order:" + uuid.NewString()

		stale, err := short.Lock(ctx, key, time.Second)
		Expect(err).NotTo(HaveOccurred())

		time.Sleep(200 * time.Millisecond)
		fresh, err := locker.Lock(ctx, key, time.Second)
		Expect(err).NotTo(HaveOccurred())

		stale()
		Expect(redisC.Client().Exists(ctx, "it:lock:"+key).Val()).To(Equal(int64(1)))
		fresh()
		Expect(redisC.Client().Exists(ctx, "it:lock:"+key).Val()).To(BeZero())
	})

	It("reports a busy order as a conflict", func() {
		truncatePostgres()
		orders := ordersvc.NewOrderService(pgdispatch.NewDispatchRepository(pool), locker, rec, 200*time.Millisecond, dbTimeout, dbTimeout)

		ord, err := orders.Create(ctx, model.CreateOrderParams{Lines: []model.OrderLine{{
			Spec:            fakeSpec(),
			OrderedQuantity: q("10"),
			Rate:            q("5"),
			TaxRate:         q("0"),
		}}})
		Expect(err).NotTo(HaveOccurred())

		release, err := locker.Lock(ctx, "order:"+ord.ID.String(), time.Second)
		Expect(err).NotTo(HaveOccurred())
		defer release()

		_, err = orders.Decide(ctx, model.DecideOrderParams{OrderID: ord.ID, Decision: model.DecisionApproved, Approver: "manager"})
		Expect(errors.Is(err, model.ErrConflict)).To(BeTrue())
	})
})
