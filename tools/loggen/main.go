package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

var (
	methods   = []string{"GET", "GET", "GET", "POST", "HEAD"}
	endpoints = []string{
		"/index.html",
		"/rss.xml",
		"/images/logo.png",
		"/Hurricane+Ridge/rss.xml",
		"/search?q=trail+maps",
		"/about",
	}
	statuses = []int{200, 200, 200, 200, 304, 404, 500}
)

// randomLine produces one synthetic Common Log Format line.
func randomLine(r *rand.Rand) string {
	ip := fmt.Sprintf("10.%d.%d.%d", r.Intn(256), r.Intn(256), r.Intn(256))
	ts := time.Now().Format("02/Jan/2006:15:04:05 -0700")
	method := methods[r.Intn(len(methods))]
	endpoint := endpoints[r.Intn(len(endpoints))]
	status := statuses[r.Intn(len(statuses))]
	size := r.Intn(65536)
	return fmt.Sprintf("%s - user%d [%s] \"%s %s HTTP/1.1\" %d %d", ip, r.Intn(5000), ts, method, endpoint, status, size)
}

func main() {
	targetURL := flag.String("url", "http://localhost:8080/ingest", "Target URL for ingestion")
	apiKey := flag.String("api-key", "supersecretkey", "API key for authentication")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 1000, "Requests per second limit")
	batchSize := flag.Int("batch", 50, "Log lines per request")
	flag.Parse()

	log.Printf("Starting log generator against %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Batch: %d", *concurrency, *duration, *rps, *batchSize)

	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}
			rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

			for {
				select {
				case <-ctx.Done():
					return
				default:
					if err := limiter.Wait(ctx); err != nil {
						return
					}

					var body bytes.Buffer
					for j := 0; j < *batchSize; j++ {
						body.WriteString(randomLine(rnd))
						body.WriteByte('\n')
					}

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, &body)
					if err != nil {
						continue
					}
					req.Header.Set("Content-Type", "text/plain")
					req.Header.Set("X-API-Key", *apiKey)
					req.Header.Set("X-Log-Source", fmt.Sprintf("loggen-%d", workerID))

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}
					resp.Body.Close()

					if resp.StatusCode == http.StatusAccepted {
						successCount.Add(1)
					} else {
						errorCount.Add(1)
					}
				}
			}
		}(i)
	}

	wg.Wait()
	log.Printf("Done. Success: %d, Errors: %d", successCount.Load(), errorCount.Load())
}
