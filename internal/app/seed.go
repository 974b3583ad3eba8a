package app

import (
	"context"
	"fmt"

	"genie-dashboard/internal/domain"
	"genie-dashboard/internal/service/widget"
)

// demoSQL matches the columns of query.FallbackResult.
const demoSQL = `SELECT customerID, first_name, last_name, total_sales
FROM samples.bakehouse.sales_customers
ORDER BY total_sales DESC
LIMIT 3`

// seedDemoWidget locks one widget over the demo dataset so a fresh,
// unconfigured install has something on the dashboard. Idempotent: it does
// nothing once any widget exists.
func seedDemoWidget(ctx context.Context, svc *widget.Service) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("list widgets: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	_, err = svc.Create(ctx, domain.CreateWidgetRequest{
		SQL: demoSQL,
		Visualization: domain.NewVisualization(domain.BarChart{
			XAxisKey: "last_name",
			YAxisKey: "total_sales",
			Title:    "Top customers by sales",
		}),
	})
	if err != nil {
		return fmt.Errorf("create demo widget: %w", err)
	}
	return nil
}
