package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tableaux-api/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "worker.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	blobs, err := core.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init object store: %v", err)
	}

	queue := core.NewRedisQueue(redisClient)
	processor := core.NewDeleteProcessor(blobs)

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	workerID := core.NewWorkerID()
	hostname, _ := os.Hostname()
	log.Printf("worker started. id=%s concurrency=%d queue=%s bucket=%s", workerID, concurrency, core.PendingDeletesKey, cfg.AWSBucket)

	const pendingKey = core.PendingDeletesKey
	const processingKey = core.ProcessingDeletesKey
	visibility := core.DefaultVisibilityTimeout
	reclaimInterval := 15 * time.Second

	state := core.NewHeartbeatState(workerID, hostname, concurrency)
	go state.Start(ctx, redisClient)

	// Requeue expired in-flight jobs periodically. Failed deletes are never
	// acked, so they come back through here once their visibility lapses;
	// object deletion is idempotent, so retrying forever converges.
	go func() {
		ticker := time.NewTicker(reclaimInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if jobs, err := queue.RequeueExpired(ctx, processingKey, pendingKey, time.Now()); err != nil {
					log.Printf("[reclaimer] requeue expired error: %v", err)
				} else if len(jobs) > 0 {
					log.Printf("[reclaimer] requeued %d expired jobs", len(jobs))
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			for {
				job, err := queue.Reserve(ctx, pendingKey, processingKey, visibility)
				if err != nil {
					if errors.Is(err, redis.Nil) {
						// Queue is empty, wait before retrying to avoid CPU spinning
						select {
						case <-ctx.Done():
							return
						case <-time.After(100 * time.Millisecond):
							continue
						}
					}
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return
					}
					log.Printf("[worker %d] dequeue error: %v", workerNum, err)
					time.Sleep(time.Second)
					continue
				}

				state.JobStarted()
				procErr := processor.Process(ctx, job)
				if procErr != nil {
					// Leave the job in processing; the reclaimer retries it.
					log.Printf("[worker %d] delete %s failed: %v", workerNum, job, procErr)
				} else {
					if err := queue.Ack(ctx, processingKey, job); err != nil {
						log.Printf("[worker %d] ack failed for job %s: %v", workerNum, job, err)
					}
				}
				state.JobFinished(procErr)
			}
		}(i + 1)
	}

	wg.Wait()
}
