package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/api/metrics"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
	sendTimeout    = 10 * time.Second
)

// Dispatcher routes recovery code deliveries to a fixed set of workers using
// consistent hashing on the target, so codes for one recipient go out in the
// order they were issued.
type Dispatcher struct {
	workers []chan ports.CodeDelivery
	sender  ports.CodeSender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// buffering up to buffer deliveries. Non-positive values use the defaults.
func NewDispatcher(numWorkers, buffer int, sender ports.CodeSender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &Dispatcher{
		workers: make([]chan ports.CodeDelivery, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CodeDelivery, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a delivery to the worker responsible for its target. It
// never blocks: when that worker's buffer is full the delivery is dropped
// and the user can ask for a resend.
func (d *Dispatcher) Enqueue(delivery ports.CodeDelivery) {
	idx := d.shardIndex(delivery.Target)
	select {
	case d.workers[idx] <- delivery:
		metrics.DeliveryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.CodeDeliveriesTotal.WithLabelValues(string(delivery.Method), "dropped").Inc()
		d.log.Warn().
			Str("challenge_id", delivery.ChallengeID).
			Int("worker_id", idx).
			Msg("delivery queue full, code dropped")
	}
}

// shardIndex maps a target deterministically to a worker index.
func (d *Dispatcher) shardIndex(target string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(target))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CodeDelivery) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-ch:
			if !ok {
				return
			}
			metrics.DeliveryQueueDepth.WithLabelValues(label).Dec()
			d.deliver(ctx, id, delivery)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, delivery ports.CodeDelivery) {
	method := string(delivery.Method)
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.sender.Send(sendCtx, delivery)
	metrics.DeliveryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CodeDeliveriesTotal.WithLabelValues(method, "failed").Inc()
		d.log.Error().Err(err).
			Str("challenge_id", delivery.ChallengeID).
			Str("method", method).
			Int("worker_id", workerID).
			Msg("code delivery failed")
		return
	}
	metrics.CodeDeliveriesTotal.WithLabelValues(method, "sent").Inc()
}
