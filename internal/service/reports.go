package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roasted-route/api/internal/database"
	"github.com/roasted-route/api/internal/pricing"
)

// DailySalesRow is one day's completed-order revenue.
type DailySalesRow struct {
	Day        time.Time
	OrderCount int64
	TotalSales decimal.Decimal
}

// ItemSalesRow is one menu item's completed-order revenue.
type ItemSalesRow struct {
	MenuItemID   uuid.UUID
	ItemName     string
	QuantitySold int64
	GrossSales   decimal.Decimal
}

// DailySales aggregates completed-order lines into per-day revenue. Line
// totals are recomputed with the pricing calculator, the same way order
// details are priced; the stored total_amount column is never consulted. The
// delivery fee counts once per order regardless of line count.
func DailySales(lines []database.CompletedOrderLine) []DailySalesRow {
	byDay := make(map[time.Time]*DailySalesRow)
	feeCounted := make(map[uuid.UUID]bool)
	for _, l := range lines {
		day := l.OrderCreatedAt.UTC().Truncate(24 * time.Hour)
		row, ok := byDay[day]
		if !ok {
			row = &DailySalesRow{Day: day, TotalSales: decimal.Zero}
			byDay[day] = row
		}
		totals := pricing.ComputeLineTotals(numericToDecimal(l.UnitPrice), l.Quantity, l.Customization)
		row.TotalSales = row.TotalSales.Add(totals.Total)
		if !feeCounted[l.OrderID] {
			feeCounted[l.OrderID] = true
			row.OrderCount++
			row.TotalSales = row.TotalSales.Add(numericToDecimal(l.DeliveryFee))
		}
	}

	result := make([]DailySalesRow, 0, len(byDay))
	for _, row := range byDay {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Day.Before(result[j].Day)
	})
	return result
}

// ItemSales aggregates completed-order lines per menu item, best sellers
// first. Add-on revenue from each line's customization is included, so gross
// sales match what customers actually paid.
func ItemSales(lines []database.CompletedOrderLine) []ItemSalesRow {
	byItem := make(map[uuid.UUID]*ItemSalesRow)
	for _, l := range lines {
		row, ok := byItem[l.MenuItemID]
		if !ok {
			row = &ItemSalesRow{MenuItemID: l.MenuItemID, ItemName: l.ItemName, GrossSales: decimal.Zero}
			byItem[l.MenuItemID] = row
		}
		totals := pricing.ComputeLineTotals(numericToDecimal(l.UnitPrice), l.Quantity, l.Customization)
		row.QuantitySold += int64(l.Quantity)
		row.GrossSales = row.GrossSales.Add(totals.Total)
	}

	result := make([]ItemSalesRow, 0, len(byItem))
	for _, row := range byItem {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].QuantitySold != result[j].QuantitySold {
			return result[i].QuantitySold > result[j].QuantitySold
		}
		return result[i].ItemName < result[j].ItemName
	})
	return result
}
