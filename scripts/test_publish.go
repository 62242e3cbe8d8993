//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type SeedRequest struct {
	JobID    uuid.UUID  `json:"job_id"`
	LayerSet string     `json:"layer_set"`
	MinZoom  int        `json:"min_zoom"`
	MaxZoom  int        `json:"max_zoom"`
	Bounds   [4]float64 `json:"bounds"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6380", "Redis address for streams")
	set := flag.String("set", "roads", "layer set to seed")
	minZoom := flag.Int("min", 10, "min zoom")
	maxZoom := flag.Int("max", 12, "max zoom")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Тестовое задание (Barcelona)
	req := SeedRequest{
		JobID:    uuid.New(),
		LayerSet: *set,
		MinZoom:  *minZoom,
		MaxZoom:  *maxZoom,
		Bounds:   [4]float64{2.05, 41.32, 2.23, 41.47},
	}

	data, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to marshal request: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:tiles:seed",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish request: %v", err)
	}

	fmt.Printf("Seed job published\n")
	fmt.Printf("   Stream: stream:tiles:seed\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Job ID: %s\n", req.JobID)
	fmt.Printf("   Layer set: %s, zoom %d-%d\n", req.LayerSet, req.MinZoom, req.MaxZoom)
}
