package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront-chat/internal/storage"
)

// DailyStats summarizes one day of recorded exchanges.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalMessages  int                     `json:"total_messages"`
	UniqueSessions int                     `json:"unique_sessions"`
	CacheHits      int                     `json:"cache_hits"`
	LLMReplies     int                     `json:"llm_replies"`
	Fallbacks      int                     `json:"fallbacks"`
	TotalTokens    int                     `json:"total_tokens"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

type SessionStats struct {
	SessionID string `json:"session_id"`
	Messages  int    `json:"messages"`
	Fallbacks int    `json:"fallbacks"`
}

// AnalyzeDailyLogs counts the events that fall on targetDate in its location.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		SessionStats: make(map[string]SessionStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}

		stats.TotalMessages++
		stats.TotalTokens += event.TotalTokens

		ss, ok := stats.SessionStats[event.SessionID]
		if !ok {
			ss = SessionStats{SessionID: event.SessionID}
		}
		ss.Messages++

		switch event.Source {
		case storage.SourceCache:
			stats.CacheHits++
		case storage.SourceLLM:
			stats.LLMReplies++
		case storage.SourceFallback:
			stats.Fallbacks++
			ss.Fallbacks++
		}
		stats.SessionStats[event.SessionID] = ss
	}

	stats.UniqueSessions = len(stats.SessionStats)
	return stats
}

// CacheHitRate is the share of messages answered from canned replies.
func (ds *DailyStats) CacheHitRate() float64 {
	if ds.TotalMessages == 0 {
		return 0
	}
	return float64(ds.CacheHits) / float64(ds.TotalMessages)
}

// GenerateReportSummary renders a plain-text report for the log.
func (ds *DailyStats) GenerateReportSummary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Chat activity for %s:\n", ds.Date)
	fmt.Fprintf(&sb, "- messages: %d\n", ds.TotalMessages)
	fmt.Fprintf(&sb, "- unique sessions: %d\n", ds.UniqueSessions)
	fmt.Fprintf(&sb, "- cache hits: %d (%.0f%%)\n", ds.CacheHits, ds.CacheHitRate()*100)
	fmt.Fprintf(&sb, "- model replies: %d (%d tokens)\n", ds.LLMReplies, ds.TotalTokens)
	fmt.Fprintf(&sb, "- fallbacks: %d\n", ds.Fallbacks)

	if len(ds.SessionStats) == 0 {
		return sb.String()
	}

	ids := make([]string, 0, len(ds.SessionStats))
	for id := range ds.SessionStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sb.WriteString("Sessions:\n")
	for _, id := range ids {
		ss := ds.SessionStats[id]
		fmt.Fprintf(&sb, "- %s: %d messages", id, ss.Messages)
		if ss.Fallbacks > 0 {
			fmt.Fprintf(&sb, ", %d fallbacks", ss.Fallbacks)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
