package agents

import (
	"fmt"

	"marketscope/internal/domain/research"
)

// Prompt templates are deterministic per agent kind so generative runs are
// reproducible for a given subject.

func sentimentPrompt(subject string, subjectType research.SubjectType) string {
	return fmt.Sprintf(`
Analyze the sentiment around "%s" (%s).
Provide realistic sentiment analysis data as if gathered from social media, reviews, and news.
Return a JSON object with:
{
  "sentiments": [
    {
      "source": "source_name",
      "sentiment": "positive|negative|neutral",
      "confidence": 0.85,
      "content": "sample content or review",
      "topics": ["topic1", "topic2"]
    }
  ]
}

Generate 5-8 realistic sentiment entries from different sources.
`, subject, subjectNoun(subjectType))
}

const sentimentSystemPrompt = "You are a sentiment analysis expert. Provide realistic market sentiment data."

func competitorPrompt(subject string, subjectType research.SubjectType) string {
	return fmt.Sprintf(`
Analyze competitors for "%s" (%s).
Provide realistic competitor analysis data as if gathered from market research.
Return a JSON object with:
{
  "competitors": [
    {
      "name": "Competitor Name",
      "price": 99.99,
      "rating": 4.2,
      "url": "https://example.com/product",
      "features": ["feature1", "feature2", "feature3"]
    }
  ]
}

Generate 4-6 realistic competitor entries with appropriate pricing and features.
`, subject, subjectNoun(subjectType))
}

const competitorSystemPrompt = "You are a competitive intelligence expert. Provide realistic competitor data."

func trendPrompt(subject string, subjectType research.SubjectType) string {
	return fmt.Sprintf(`
Analyze market trends for "%s" (%s).
Based on your knowledge of actual market trends, seasonal patterns, and industry growth in this space.

Provide REALISTIC trend analysis that reflects actual search volumes and market interest patterns.
Consider factors like:
- Actual market size for this industry
- Seasonal variations (if applicable)
- Recent industry developments
- Competition levels
- Geographic variations

Return a JSON object with realistic data:
{
  "trends": [
    {
      "keyword": "main keyword or related term",
      "searchVolume": 12500,
      "trendDirection": "increasing|decreasing|stable",
      "timePeriod": "30d|90d|1y",
      "dataPoints": [
        {"date": "2024-01-01", "volume": 10000, "interest": 85},
        {"date": "2024-01-15", "volume": 12500, "interest": 92}
      ]
    }
  ]
}

Base search volumes on realistic numbers for the %s industry.
Generate 4-6 trend entries covering different aspects and time periods.
`, subject, subjectNoun(subjectType), subject)
}

const trendSystemPrompt = "You are a market trend analyst. Provide realistic trend data with proper JSON format."
