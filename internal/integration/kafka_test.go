//go:build integration

package integration

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/converter"
	"github.com/aasmaanchaalak/inventoryapp-sub001/internal/model"
	pgdispatch "github.com/aasmaanchaalak/inventoryapp-sub001/internal/repository/dispatch/postgres"
	approvalconsumer "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/consumer/approval"
	ordersvc "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/order"
	dispatchproducer "github.com/aasmaanchaalak/inventoryapp-sub001/internal/service/producer/dispatch"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka/consumer"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka/middleware"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/kafka/producer"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/lock"
	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V4_0_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	return cfg
}

func consumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V4_0_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	return cfg
}

var _ = Describe("Kafka events", func() {
	var conv = converter.NewKafkaConverter()

	BeforeEach(func() {
		truncatePostgres()
	})

	It("publishes dispatch.executed when stock is consumed", func() {
		sp, err := sarama.NewSyncProducer(kafkaBrokers, producerConfig())
		Expect(err).NotTo(HaveOccurred())
		defer sp.Close()

		publisher := dispatchproducer.NewDispatchProducer(
			producer.NewProducer(sp, topicDispatchExecuted, logger.L()),
			conv,
		)
		s := newPostgresStack(publisher)

		spec := fakeSpec()
		ord := s.order(spec, "100")
		s.receive(spec, "60")

		res, err := s.dispatches.Dispatch(ctx, ord.ID, []model.DispatchRequestLine{{Spec: spec, Quantity: q("60")}})
		Expect(err).NotTo(HaveOccurred())

		By("reading the event back")
		group, err := sarama.NewConsumerGroup(kafkaBrokers, "dispatch-it-executed-"+uuid.NewString(), consumerConfig())
		Expect(err).NotTo(HaveOccurred())
		defer group.Close()

		cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()

		got := make(chan model.DispatchExecutedEvent, 1)
		go func() {
			_ = consumer.NewConsumer(group, []string{topicDispatchExecuted}, logger.L()).
				Consume(cctx, func(_ context.Context, msg kafka.Message) error {
					if msg.Header(dispatchproducer.HeaderEventType) != dispatchproducer.EventDispatchExecuted {
						return nil
					}
					e, err := conv.DispatchExecutedToModel(msg.Value)
					if err != nil || e.DispatchID != res.Primary.ID {
						return nil
					}
					got <- e
					cancel()
					return nil
				})
		}()

		var event model.DispatchExecutedEvent
		Eventually(got).WithTimeout(20 * time.Second).Should(Receive(&event))
		Expect(event.OrderID).To(Equal(ord.ID))
		Expect(event.HumanNumber).To(Equal(res.Primary.HumanNumber))
		Expect(event.Quantity).To(Equal("60.00"))
		Expect(event.OrderStatus).To(Equal(model.OrderPartialDispatch))
	})

	It("applies approval decisions from order.approval", func() {
		orders := ordersvc.NewOrderService(pgdispatch.NewDispatchRepository(pool), lock.NewKeyedMutex(), rec, dbTimeout, dbTimeout, dbTimeout)
		ord, err := orders.Create(ctx, model.CreateOrderParams{Lines: []model.OrderLine{{
			Spec:            fakeSpec(),
			OrderedQuantity: q("25"),
			Rate:            q("100"),
			TaxRate:         q("18"),
		}}})
		Expect(err).NotTo(HaveOccurred())

		group, err := sarama.NewConsumerGroup(kafkaBrokers, approvalGroupID, consumerConfig())
		Expect(err).NotTo(HaveOccurred())
		defer group.Close()

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		approvals := approvalconsumer.NewApprovalConsumer(
			consumer.NewConsumer(group, []string{topicOrderApproval}, logger.L(),
				middleware.Recovery(logger.L()),
				middleware.Logging(logger.L()),
				middleware.Retry(logger.L(), 3, 100*time.Millisecond),
			),
			conv,
			orders,
		)
		errCh := make(chan error, 1)
		go func() { errCh <- approvals.RunApprovalConsume(cctx) }()

		By("sending a malformed record that must be skipped")
		sp, err := sarama.NewSyncProducer(kafkaBrokers, producerConfig())
		Expect(err).NotTo(HaveOccurred())
		defer sp.Close()

		_, _, err = sp.SendMessage(&sarama.ProducerMessage{
			Topic: topicOrderApproval,
			Key:   sarama.StringEncoder(ord.ID.String()),
			Value: sarama.ByteEncoder("not a protobuf"),
		})
		Expect(err).NotTo(HaveOccurred())

		By("sending the approval")
		payload, err := conv.OrderApprovalDecidedToPayload(model.OrderApprovalDecided{
			EventID:  uuid.New(),
			OrderID:  ord.ID,
			Decision: model.DecisionApproved,
			Approver: "finance",
		})
		Expect(err).NotTo(HaveOccurred())

		_, _, err = sp.SendMessage(&sarama.ProducerMessage{
			Topic: topicOrderApproval,
			Key:   sarama.StringEncoder(ord.ID.String()),
			Value: sarama.ByteEncoder(payload),
		})
		Expect(err).NotTo(HaveOccurred())

		Eventually(func(g Gomega) {
			got, err := orders.Get(ctx, ord.ID)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(got.ApprovalStatus).To(Equal(model.ApprovalApproved))
			g.Expect(got.ApprovedBy).To(Equal("finance"))
		}).WithTimeout(20 * time.Second).WithPolling(200 * time.Millisecond).Should(Succeed())

		Consistently(errCh, time.Second).ShouldNot(Receive())
	})
})
