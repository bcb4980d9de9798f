package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/listing/usecase"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

const reconcileTimeout = 30 * time.Second

// Reconciler repairs the image count of a single listing.
type Reconciler interface {
	Reconcile(ctx context.Context, listingID string) (*usecase.ReconcileResult, error)
}

// ReconcileSubscriber runs the reconciler for every reconcile request
// published on the bus. Replicas share a queue group so each request is
// handled once.
type ReconcileSubscriber struct {
	conn       *nats.Conn
	reconciler Reconciler
	queue      string
	sub        *nats.Subscription
	logger     *logger.Logger
}

func NewReconcileSubscriber(conn *nats.Conn, reconciler Reconciler, queue string, log *logger.Logger) *ReconcileSubscriber {
	return &ReconcileSubscriber{
		conn:       conn,
		reconciler: reconciler,
		queue:      queue,
		logger:     log.Named("ReconcileSubscriber"),
	}
}

func (s *ReconcileSubscriber) Start() error {
	sub, err := s.conn.QueueSubscribe(usecase.SubjectReconcileRequested, s.queue, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", usecase.SubjectReconcileRequested, err)
	}
	s.sub = sub
	s.logger.Info("listening for reconcile requests", zap.String("subject", usecase.SubjectReconcileRequested), zap.String("queue", s.queue))
	return nil
}

func (s *ReconcileSubscriber) handle(msg *nats.Msg) {
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), HeaderCarrier(msg.Header))
	ctx, span := tracer.Start(ctx, "NATS.Consume."+msg.Subject)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, reconcileTimeout)
	defer cancel()

	var req usecase.ReconcileRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.ListingID == "" {
		s.logger.Warn("dropping malformed reconcile request", zap.ByteString("data", msg.Data), zap.Error(err))
		return
	}

	res, err := s.reconciler.Reconcile(ctx, req.ListingID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("reconcile failed", zap.String("listing_id", req.ListingID), zap.Error(err))
		return
	}
	s.logger.Info("listing reconciled",
		zap.String("listing_id", res.ListingID),
		zap.Int("image_count", res.ImageCount),
		zap.Int("deleted_orphans", res.DeletedOrphans))
}

// Stop removes the subscription. Pending messages are dropped.
func (s *ReconcileSubscriber) Stop() {
	if s.sub == nil {
		return
	}
	if err := s.sub.Unsubscribe(); err != nil {
		s.logger.Warn("failed to unsubscribe", zap.Error(err))
	}
}
