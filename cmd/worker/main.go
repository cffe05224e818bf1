package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"videowall/internal/comfyui"
	"videowall/internal/config"
	"videowall/internal/db"
	"videowall/internal/store/rabbitmq"
	"videowall/internal/store/redisstore"
	"videowall/internal/video"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := video.NewRepo(gdb)

	rds, err := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rds.Close()

	comfy := comfyui.NewClient(cfg.ComfyUIURL, cfg.ComfyUIToken)
	updater := video.NewUpdater(comfy, rds, repo, cfg.OutputDir)
	mock := video.NewMockGenerator(rds)
	merger := video.NewMerger(rds, cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// queue updater
	go updater.Run(ctx, cfg.UpdateInterval)

	// simulated task progression
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mock.Advance(ctx); err != nil {
					log.Printf("advance mock tasks: %v", err)
				}
			}
		}
	}()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	// args must match the publisher's declaration
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.MergeMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.BatchID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				url, err := merger.Merge(ctx, m.BatchID, m.VideoPaths, m.Content)
				if err != nil {
					log.Printf("worker=%d merge %s failed cost=%s err=%v", workerID, m.BatchID, time.Since(start), err)
					merger.MarkFailed(ctx, m.BatchID, err)
					_ = d.Nack(false, false)
					continue
				}
				log.Printf("worker=%d merged %s -> %s cost=%s", workerID, m.BatchID, url, time.Since(start))

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed batch=%s err=%v", workerID, m.BatchID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
