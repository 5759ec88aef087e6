package workers

import (
	"context"
	"log"
	"time"

	"github.com/KrampusTON/indyback/services"
)

// PollSaleData keeps the cached sale snapshot fresh. Failures are
// logged and retried on the next tick; the stale snapshot keeps
// serving in the meantime.
func PollSaleData(ctx context.Context, sale *services.SaleService, pollInterval time.Duration) {
	log.Println("Starting sale data polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sale data polling stopped.")
			return
		case <-ticker.C:
			fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			snap, err := sale.RefreshSnapshot(fetchCtx)
			cancel()
			if err != nil {
				log.Printf("Error refreshing sale snapshot: %v", err)
				continue
			}
			log.Printf("Sale snapshot refreshed: price=%.8f available=%.2f bought=%.2f",
				snap.TokenPrice, snap.TokensAvailable, snap.TotalBought)
		}
	}
}
