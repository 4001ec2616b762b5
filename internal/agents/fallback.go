package agents

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
)

// Placeholder datasets are the unconditional last tier. They keep the
// pipeline productive when no provider is configured or every upstream
// call failed.

func sentimentFallback(subject string) []sentimentEntry {
	return []sentimentEntry{
		{
			Source:     "Twitter/X",
			Sentiment:  string(sentiment.ClassPositive),
			Confidence: 0.78,
			Content:    fmt.Sprintf("Great experience with %s! Highly recommend.", subject),
			Topics:     []string{"quality", "experience"},
		},
		{
			Source:     "Reddit",
			Sentiment:  string(sentiment.ClassNeutral),
			Confidence: 0.65,
			Content:    fmt.Sprintf("Mixed feelings about %s. Some good points, some concerns.", subject),
			Topics:     []string{"value", "features"},
		},
		{
			Source:     "Product Reviews",
			Sentiment:  string(sentiment.ClassPositive),
			Confidence: 0.82,
			Content:    fmt.Sprintf("%s exceeded my expectations. Well worth it.", subject),
			Topics:     []string{"satisfaction", "value"},
		},
	}
}

func competitorFallback(subject string) []competitor.Record {
	return []competitor.Record{
		{
			CompetitorName: subject + " Alternative A",
			Price:          decimalPtr("89.99"),
			Rating:         float64Ptr(4.1),
			URL:            strPtr("https://competitor-a.com"),
			Features:       pq.StringArray{"Advanced Analytics", "Cloud Storage", "24/7 Support"},
		},
		{
			CompetitorName: subject + " Pro",
			Price:          decimalPtr("129.99"),
			Rating:         float64Ptr(4.4),
			URL:            strPtr("https://competitor-b.com"),
			Features:       pq.StringArray{"Premium Features", "API Access", "Custom Reports"},
		},
		{
			CompetitorName: "Budget " + subject,
			Price:          decimalPtr("49.99"),
			Rating:         float64Ptr(3.8),
			URL:            strPtr("https://budget-option.com"),
			Features:       pq.StringArray{"Basic Features", "Email Support", "Standard Analytics"},
		},
	}
}

type trendSeed struct {
	keyword    string
	volume     int64
	direction  trend.Direction
	timePeriod string
}

// trendFallback builds subject-aware placeholder trends with a two-point
// timeline: one observation 30 days back at 80% of current volume, one today.
func trendFallback(subject string, now time.Time) []trend.Record {
	normalized := strings.ToLower(subject)

	var seeds []trendSeed
	switch {
	case strings.Contains(normalized, "iphone") || strings.Contains(normalized, "apple"):
		seeds = []trendSeed{
			{"iPhone 15 Pro", 2450000, trend.DirectionIncreasing, "30d"},
			{"iPhone camera quality", 892000, trend.DirectionStable, "90d"},
			{"iPhone vs Android", 756000, trend.DirectionIncreasing, "30d"},
		}
	case strings.Contains(normalized, "tesla") || strings.Contains(normalized, "electric car"):
		seeds = []trendSeed{
			{"Tesla Model 3 price", 1240000, trend.DirectionIncreasing, "30d"},
			{"Tesla Supercharger network", 540000, trend.DirectionIncreasing, "90d"},
			{"Tesla stock analysis", 890000, trend.DirectionStable, "30d"},
		}
	default:
		seeds = []trendSeed{
			{subject + " market", rand.Int63n(1000000) + 100000, trend.DirectionIncreasing, "30d"},
			{subject + " reviews", rand.Int63n(500000) + 50000, trend.DirectionStable, "90d"},
			{subject + " alternatives", rand.Int63n(300000) + 30000, trend.DirectionIncreasing, "30d"},
		}
	}

	past := now.AddDate(0, 0, -30)
	records := make([]trend.Record, 0, len(seeds))
	for _, s := range seeds {
		volume := s.volume
		records = append(records, trend.Record{
			Keyword:      s.keyword,
			SearchVolume: &volume,
			Direction:    s.direction,
			TimePeriod:   s.timePeriod,
			DataPoints: trend.DataPoints{
				{Date: past.Format("2006-01-02"), Volume: volume * 8 / 10, Interest: 78},
				{Date: now.Format("2006-01-02"), Volume: volume, Interest: 89},
			},
		})
	}
	return records
}

func decimalPtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func float64Ptr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }
