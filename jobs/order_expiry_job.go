package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// OrderExpirer is the part of the order service the job drives.
type OrderExpirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// ExpireStaleOrders marks gateway orders left pending for longer than ttl as
// expired.
func ExpireStaleOrders(orders OrderExpirer, ttl time.Duration) {
	log.Println("Running job: ExpireStaleOrders...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := orders.ExpireStale(ctx, ttl)
	if err != nil {
		log.Printf("Error expiring stale orders: %v", err)
		return
	}
	if expired == 0 {
		log.Println("No stale orders found.")
		return
	}
	log.Printf("Marked %d order(s) as expired.", expired)
}

// Schedule registers every background job on a new cron runner. The caller
// starts and stops it.
func Schedule(orders OrderExpirer, ttl time.Duration) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("*/15 * * * *", func() { ExpireStaleOrders(orders, ttl) }); err != nil {
		return nil, err
	}
	return c, nil
}
