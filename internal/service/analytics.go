package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/internal/repo"
)

const (
	AnalyticsDays = 7
	dateLayout    = "2006-01-02"
)

type AnalyticsData struct {
	Users        int64 `json:"users"`
	Products     int64 `json:"products"`
	TotalSales   int64 `json:"totalSales"`
	TotalRevenue int64 `json:"totalRevenue"`
}

type DailySales struct {
	Date    string `json:"date"`
	Sales   int64  `json:"sales"`
	Revenue int64  `json:"revenue"`
}

type Analytics struct {
	Data  AnalyticsData
	Daily []DailySales
}

type AnalyticsService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Analytics returns store totals plus one zero-filled entry per UTC day for
// the last AnalyticsDays days including today. Amounts are in cents.
func (s *AnalyticsService) Analytics(ctx context.Context) (*Analytics, error) {
	users, err := s.Repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	products, err := s.Repo.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	totals, err := s.Repo.SalesTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}

	end := s.now().UTC()
	today := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(AnalyticsDays - 1))

	stamps, err := s.Repo.OrdersBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}

	daily := make([]DailySales, AnalyticsDays)
	index := make(map[string]int, AnalyticsDays)
	for i := range daily {
		d := start.AddDate(0, 0, i).Format(dateLayout)
		daily[i] = DailySales{Date: d}
		index[d] = i
	}
	for _, st := range stamps {
		if i, ok := index[st.CreatedAt.UTC().Format(dateLayout)]; ok {
			daily[i].Sales++
			daily[i].Revenue += st.TotalAmount
		}
	}

	return &Analytics{
		Data: AnalyticsData{
			Users:        users,
			Products:     products,
			TotalSales:   totals.Sales,
			TotalRevenue: totals.Revenue,
		},
		Daily: daily,
	}, nil
}
