package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/provenly/resilience/internal/resilience/dlq"
	"github.com/provenly/resilience/internal/resilience/handler"
	"github.com/provenly/resilience/internal/resilience/manager"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	ctx := context.Background()

	// 1. Create a manager with an in-memory dead-letter store
	m := manager.New(manager.Config{}, dlq.NewMemoryStore(), nil, nil, nil)
	h := handler.New(m)

	// 2. Simulate a flaky external API: fails twice, then succeeds
	calls := 0
	result, err := h.HandleExternalAPI(ctx, handler.CallContext{
		Endpoint: "/v1/prices",
	}, func(ctx context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return "42.17 USD", nil
	})
	if err != nil {
		log.Fatalf("External API call failed: %v", err)
	}
	fmt.Printf("External API succeeded after %d attempts: %v\n", calls, result)

	// 3. Simulate a permanently broken database operation
	_, err = h.HandleDatabaseOperation(ctx, handler.CallContext{
		EventID: "evt-123",
	}, func(ctx context.Context) (any, error) {
		return nil, errors.New("lock wait timeout exceeded")
	})
	fmt.Printf("Database operation gave up: %v\n", err)

	// 4. Show the resulting stats
	stats, err := m.Stats(ctx)
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}

	fmt.Println("\n=== Stats ===")
	fmt.Printf("Dead-lettered: %d\n", stats.TotalFailed)
	for name, state := range stats.CircuitBreakerStates {
		fmt.Printf("  %s: %s\n", name, state)
	}

	// 5. List what ended up in the dead-letter queue
	entries, err := m.FailedOperations(ctx)
	if err != nil {
		log.Fatalf("FailedOperations failed: %v", err)
	}
	fmt.Println("\n=== Dead letters ===")
	for _, e := range entries {
		fmt.Printf("  %s (attempts=%d, next retry %s): %s\n",
			e.OperationName, e.Attempts, e.NextRetryAt.Format("15:04:05"), e.LastError)
	}
}
