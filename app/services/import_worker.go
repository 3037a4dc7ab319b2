package services

import (
	"context"
	"log"
	"sync"
)

type ImportJob struct {
	ShopID string
	Feed   *PriceFeed
}

// ImportQueue runs catalog imports off the request path. The accepting
// handler only enqueues; workers pick jobs up and report the outcome through
// the notification bus. Jobs for the same shop serialize on a per-shop lock
// so two uploads cannot interleave their delete/recreate phases; different
// shops import in parallel.
type ImportQueue struct {
	svc     *ImportService
	jobs    chan ImportJob
	workers int

	mu        sync.Mutex
	shopLocks map[string]*sync.Mutex

	wg sync.WaitGroup
}

func NewImportQueue(svc *ImportService, size, workers int) *ImportQueue {
	if workers < 1 {
		workers = 1
	}
	return &ImportQueue{
		svc:       svc,
		jobs:      make(chan ImportJob, size),
		workers:   workers,
		shopLocks: make(map[string]*sync.Mutex),
	}
}

func (q *ImportQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Enqueue hands a feed to the workers. It never blocks: a full queue is
// reported to the caller so the accept endpoint can push back.
func (q *ImportQueue) Enqueue(job ImportJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs and waits until every queued import has run.
// Every accepted feed reports its outcome before shutdown completes.
func (q *ImportQueue) Close() {
	close(q.jobs)
	q.wg.Wait()
}

func (q *ImportQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *ImportQueue) run(job ImportJob) {
	lock := q.shopLock(job.ShopID)
	lock.Lock()
	defer lock.Unlock()

	// Accepted jobs outlive the request and the server's shutdown signal.
	summary, err := q.svc.ImportCatalog(context.Background(), job.ShopID, job.Feed)
	if err != nil {
		log.Printf("import: shop %s failed: %v", job.ShopID, err)
		return
	}
	log.Printf("import: shop %s done (%d categories, %d listings, %d attributes)",
		job.ShopID, summary.Categories, summary.Listings, summary.Attributes)
}

func (q *ImportQueue) shopLock(shopID string) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()
	lock, ok := q.shopLocks[shopID]
	if !ok {
		lock = &sync.Mutex{}
		q.shopLocks[shopID] = lock
	}
	return lock
}
