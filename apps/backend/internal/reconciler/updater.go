package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/event_publisher"
	"whitelabel/apps/backend/internal/exchange"
	"whitelabel/apps/backend/internal/metrics"
	"whitelabel/apps/backend/internal/model"
	"whitelabel/apps/backend/internal/repository"
)

const (
	DefaultBatchSize      = 10
	DefaultDelay          = 100 * time.Millisecond
	DefaultPublishTimeout = 10 * time.Second
)

// ReceiptFetcher is satisfied by *ethclient.Client.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Options tunes a pass. Delay is the pause between two orders of the same
// pass. StaleAfter is the age past which an unresolved order counts as stale;
// zero disables stale tracking. PublishTimeout bounds each resolution publish
// so a slow broker cannot stall the pass.
type Options struct {
	BatchSize      int
	Delay          time.Duration
	StaleAfter     time.Duration
	PublishTimeout time.Duration
	Clock          clock.Clock
}

type outcome int

const (
	outcomeResolved outcome = iota
	outcomePending
	outcomeUnmatched
	outcomeFailed
	outcomeAlreadyResolved
)

// OrderIDUpdater backfills blockchain order ids for orders whose creation
// transaction was mined after the submitting request gave up waiting.
type OrderIDUpdater struct {
	store     repository.OrderStore
	fetcher   ReceiptFetcher
	decoder   *exchange.Decoder
	publisher event_publisher.ResolutionPublisher
	metrics   *metrics.OrderSyncMetrics
	logger    *zap.Logger

	batchSize      int
	delay          time.Duration
	staleAfter     time.Duration
	publishTimeout time.Duration
	clock          clock.Clock

	passMu sync.Mutex // serializes passes

	mu   sync.Mutex // guards stop
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewOrderIDUpdater wires the updater. publisher may be nil; m may be nil, in
// which case unregistered metrics are used.
func NewOrderIDUpdater(
	store repository.OrderStore,
	fetcher ReceiptFetcher,
	decoder *exchange.Decoder,
	publisher event_publisher.ResolutionPublisher,
	m *metrics.OrderSyncMetrics,
	logger *zap.Logger,
	opts Options) *OrderIDUpdater {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if m == nil {
		m = metrics.NewOrderSyncMetrics(nil)
	}

	return &OrderIDUpdater{
		store:          store,
		fetcher:        fetcher,
		decoder:        decoder,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
		batchSize:      opts.BatchSize,
		delay:          opts.Delay,
		staleAfter:     opts.StaleAfter,
		publishTimeout: opts.PublishTimeout,
		clock:          opts.Clock,
	}
}

// Start runs a pass immediately and then every intervalSeconds. Calling Start
// on a running updater only logs.
func (u *OrderIDUpdater) Start(intervalSeconds int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.stop != nil {
		u.logger.Info("Order id updater already running")
		return
	}
	if intervalSeconds <= 0 {
		u.logger.Error("Refusing to start order id updater with non-positive interval",
			zap.Int("interval_seconds", intervalSeconds))
		return
	}

	interval := time.Duration(intervalSeconds) * time.Second
	ticker := u.clock.Ticker(interval)
	stop := make(chan struct{})
	u.stop = stop

	u.logger.Info("Starting order id updater",
		zap.Duration("interval", interval),
		zap.Int("batch_size", u.batchSize))

	u.wg.Add(1)
	go u.loop(ticker, stop)
}

func (u *OrderIDUpdater) loop(ticker *clock.Ticker, stop <-chan struct{}) {
	defer u.wg.Done()
	defer ticker.Stop()

	ctx := context.Background()
	u.RunOnce(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Stop may race with a tick; prefer stopping
			select {
			case <-stop:
				return
			default:
			}
			u.RunOnce(ctx)
		}
	}
}

// Stop cancels the timer. A pass already in progress runs to completion.
func (u *OrderIDUpdater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.stop == nil {
		return
	}
	close(u.stop)
	u.stop = nil
	u.logger.Info("Stopped order id updater")
}

// Wait blocks until the timer goroutine started by the last Start has exited.
func (u *OrderIDUpdater) Wait() {
	u.wg.Wait()
}

func (u *OrderIDUpdater) IsRunning() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stop != nil
}

// RunOnce performs a single reconciliation pass. Failures are logged and
// counted, never returned.
func (u *OrderIDUpdater) RunOnce(ctx context.Context) model.PassResult {
	u.passMu.Lock()
	defer u.passMu.Unlock()

	return u.runPass(ctx)
}

// ForceUpdateAll keeps running passes while each one resolves a full batch,
// so a backlog larger than the batch size drains in one call.
func (u *OrderIDUpdater) ForceUpdateAll(ctx context.Context) model.PassResult {
	u.passMu.Lock()
	defer u.passMu.Unlock()

	u.logger.Info("Force updating unresolved orders")

	var total model.PassResult
	for {
		result := u.runPass(ctx)
		total.Candidates += result.Candidates
		total.Resolved += result.Resolved
		total.Pending += result.Pending
		total.Unmatched += result.Unmatched
		total.Failed += result.Failed
		total.Duration += result.Duration

		if result.Resolved < u.batchSize || ctx.Err() != nil {
			break
		}
	}

	u.logger.Info("Force update finished",
		zap.Int("candidates", total.Candidates),
		zap.Int("resolved", total.Resolved),
		zap.Int("pending", total.Pending),
		zap.Int("unmatched", total.Unmatched),
		zap.Int("failed", total.Failed))
	return total
}

// GetStats returns order counts per status plus the reconciliation backlog.
func (u *OrderIDUpdater) GetStats(ctx context.Context) (model.OrderStats, error) {
	counts, err := u.store.CountByStatus(ctx)
	if err != nil {
		return model.OrderStats{}, fmt.Errorf("failed to count orders: %w", err)
	}

	unresolved, stale, err := u.store.CountUnresolved(ctx, u.staleBefore())
	if err != nil {
		return model.OrderStats{}, fmt.Errorf("failed to count unresolved orders: %w", err)
	}

	stats := model.OrderStats{
		Active:          counts[model.OrderStatusActive],
		Filled:          counts[model.OrderStatusFilled],
		Cancelled:       counts[model.OrderStatusCancelled],
		Unresolved:      unresolved,
		StaleUnresolved: stale,
	}
	for _, c := range counts {
		stats.Total += c
	}
	return stats, nil
}

func (u *OrderIDUpdater) runPass(ctx context.Context) model.PassResult {
	start := u.clock.Now()
	var result model.PassResult
	defer func() {
		result.Duration = u.clock.Since(start)
		u.metrics.RecordPass(result.Duration)
	}()

	orders, err := u.store.FindUnresolved(ctx, u.batchSize)
	if err != nil {
		u.metrics.RecordError(metrics.StageQuery)
		u.logger.Error("Failed to query unresolved orders", zap.Error(err))
		return result
	}

	result.Candidates = len(orders)
	if len(orders) > 0 {
		u.logger.Debug("Reconciling unresolved orders", zap.Int("count", len(orders)))
	}

	for i, order := range orders {
		if i > 0 && !u.pause(ctx) {
			u.logger.Info("Reconciliation pass interrupted", zap.Error(ctx.Err()))
			break
		}

		switch u.processOrder(ctx, order) {
		case outcomeResolved:
			result.Resolved++
		case outcomePending:
			result.Pending++
		case outcomeUnmatched:
			result.Unmatched++
		case outcomeFailed:
			result.Failed++
		}
	}

	u.refreshBacklog(ctx)

	if result.Resolved > 0 || result.Failed > 0 {
		u.logger.Info("Reconciliation pass finished",
			zap.Int("candidates", result.Candidates),
			zap.Int("resolved", result.Resolved),
			zap.Int("pending", result.Pending),
			zap.Int("unmatched", result.Unmatched),
			zap.Int("failed", result.Failed))
	}
	return result
}

func (u *OrderIDUpdater) processOrder(ctx context.Context, order model.Order) outcome {
	if order.TxHash == nil {
		return outcomePending
	}
	fields := []zap.Field{zap.String("order_id", order.ID), zap.String("tx_hash", *order.TxHash)}

	txHash, err := parseTxHash(*order.TxHash)
	if err != nil {
		u.metrics.RecordError(metrics.StageReceipt)
		u.logger.Error("Order has malformed transaction hash", append(fields, zap.Error(err))...)
		return outcomeFailed
	}

	receipt, err := u.fetcher.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) || (err == nil && receipt == nil) {
		u.metrics.RecordPending()
		u.logger.Debug("Transaction receipt not available yet", fields...)
		return outcomePending
	}
	if err != nil {
		u.metrics.RecordError(metrics.StageReceipt)
		u.logger.Error("Failed to fetch transaction receipt", append(fields, zap.Error(err))...)
		return outcomeFailed
	}

	event, ok := u.decoder.FindOrderCreated(receipt)
	if !ok {
		u.metrics.RecordUnmatched()
		u.logger.Warn("No order created event in transaction receipt",
			append(fields,
				zap.Uint64("receipt_status", receipt.Status),
				zap.Bool("reverted", receipt.Status == types.ReceiptStatusFailed),
				zap.Int("log_count", len(receipt.Logs)))...)
		return outcomeUnmatched
	}

	updated, err := u.store.SetBlockchainOrderID(ctx, order.ID, event.OrderID, event.BlockNumber)
	if err != nil {
		u.metrics.RecordError(metrics.StageUpdate)
		u.logger.Error("Failed to store blockchain order id",
			append(fields, zap.Uint64("blockchain_order_id", event.OrderID), zap.Error(err))...)
		return outcomeFailed
	}
	if !updated {
		u.logger.Debug("Order already resolved", fields...)
		return outcomeAlreadyResolved
	}

	u.metrics.RecordResolved()
	u.logger.Info("Resolved blockchain order id",
		append(fields,
			zap.String("event", string(event.Kind)),
			zap.Uint64("blockchain_order_id", event.OrderID),
			zap.Uint64("block_number", event.BlockNumber))...)

	u.publish(ctx, order, event)
	return outcomeResolved
}

func (u *OrderIDUpdater) publish(ctx context.Context, order model.Order, event exchange.DecodedEvent) {
	if u.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, u.publishTimeout)
	defer cancel()

	err := u.publisher.PublishResolved(ctx, model.ResolvedOrder{
		OrderID:           order.ID,
		BlockchainOrderID: event.OrderID,
		BlockNumber:       event.BlockNumber,
		TxHash:            *order.TxHash,
		Event:             string(event.Kind),
		WalletAddress:     order.WalletAddress,
		ResolvedAt:        u.clock.Now().UTC(),
	})
	if err != nil {
		u.metrics.RecordError(metrics.StagePublish)
		u.logger.Error("Failed to publish order id resolution",
			zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (u *OrderIDUpdater) refreshBacklog(ctx context.Context) {
	unresolved, stale, err := u.store.CountUnresolved(ctx, u.staleBefore())
	if err != nil {
		u.metrics.RecordError(metrics.StageStats)
		u.logger.Error("Failed to count unresolved orders", zap.Error(err))
		return
	}

	u.metrics.SetBacklog(unresolved, stale)
	if stale > 0 {
		u.logger.Warn("Orders unresolved past stale threshold",
			zap.Int64("stale", stale),
			zap.Int64("unresolved", unresolved),
			zap.Duration("stale_after", u.staleAfter))
	}
}

// staleBefore returns the zero time when stale tracking is disabled, which no
// order predates.
func (u *OrderIDUpdater) staleBefore() time.Time {
	if u.staleAfter <= 0 {
		return time.Time{}
	}
	return u.clock.Now().Add(-u.staleAfter)
}

// pause waits out the inter-order delay. It reports false when ctx ends first.
func (u *OrderIDUpdater) pause(ctx context.Context) bool {
	if u.delay == 0 {
		return ctx.Err() == nil
	}

	timer := u.clock.Timer(u.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// parseTxHash accepts hex of at most 32 bytes with an optional single 0x
// prefix; shorter values are left-padded.
func parseTxHash(raw string) (common.Hash, error) {
	hexPart := raw
	if len(raw) >= 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		hexPart = raw[2:]
	}
	if hexPart == "" || len(hexPart) > 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid transaction hash length %d", len(hexPart))
	}
	for _, r := range hexPart {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return common.Hash{}, fmt.Errorf("invalid hex character %q in transaction hash", r)
		}
	}
	return common.HexToHash(hexPart), nil
}
