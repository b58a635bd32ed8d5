package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]int
	Slots             map[uint32]*SlotStats
	Dropped           int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SlotStats holds statistics for a single surface slot.
type SlotStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Messages  int
	States    int
	Paths     map[string]int
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]int),
		Slots:             make(map[uint32]*SlotStats),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++
		if event.SessionID != "" {
			stats.Sessions[event.SessionID]++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Error != nil {
			stats.Errors++
		}

		// Surface-wide events carry slot 0 and are not tracked per slot.
		if event.SlotID == 0 {
			continue
		}
		slot, ok := stats.Slots[event.SlotID]
		if !ok {
			slot = &SlotStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				Paths:     make(map[string]int),
			}
			stats.Slots[event.SlotID] = slot
		}
		if event.Timestamp.After(slot.LastSeen) {
			slot.LastSeen = event.Timestamp
		}
		switch {
		case event.Message != nil:
			slot.Messages++
			slot.Paths[event.Message.Path]++
			if event.Message.Dropped {
				stats.Dropped++
			}
		case event.StateChange != nil:
			slot.States++
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Feedback Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", formatDuration(stats.TimeRange.End.Sub(stats.TimeRange.Start)))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerFeedback, log.LayerTransport, log.LayerSurface} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Slots: %d\n", len(stats.Slots))
	if len(stats.Slots) > 0 {
		ids := make([]uint32, 0, len(stats.Slots))
		for id := range stats.Slots {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		fmt.Fprintln(w)
		for _, id := range ids {
			s := stats.Slots[id]
			fmt.Fprintf(w, "  [%d] %d messages, %d state changes, duration %s\n",
				id, s.Messages, s.States, s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond))
			if top := busiestPath(s.Paths); top != "" {
				fmt.Fprintf(w, "       Busiest: %s (%d)\n", top, s.Paths[top])
			}
		}
	}

	if stats.Dropped > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Dropped: %d\n", stats.Dropped)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

// busiestPath returns the most frequent path, breaking ties by name.
func busiestPath(paths map[string]int) string {
	var best string
	for p, n := range paths {
		if best == "" || n > paths[best] || (n == paths[best] && p < best) {
			best = p
		}
	}
	return best
}
