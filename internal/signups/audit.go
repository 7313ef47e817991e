package signups

import (
	"context"
	"fmt"
)

// CountDrift describes an event whose stored volunteer counter disagrees with its signups.
type CountDrift struct {
	EventID       int64
	Title         string
	Recorded      int
	Actual        int
	MaxVolunteers int
}

// Problems lists every way the event breaks the counter rules.
func (d CountDrift) Problems() []string {
	var out []string
	if d.Recorded != d.Actual {
		out = append(out, fmt.Sprintf("counter %d does not match %d signups", d.Recorded, d.Actual))
	}
	if d.Recorded < 0 {
		out = append(out, "counter is negative")
	}
	if d.Recorded > d.MaxVolunteers {
		out = append(out, fmt.Sprintf("counter %d exceeds capacity %d", d.Recorded, d.MaxVolunteers))
	}
	return out
}

// CountDrift returns every event whose current_vol_count is inconsistent.
func (r *Repository) CountDrift(ctx context.Context) ([]CountDrift, error) {
	const q = `SELECT e.id, e.title, e.current_vol_count, COUNT(s.id), e.max_volunteers
		FROM events e
		LEFT JOIN event_signups s ON s.event_id = e.id
		GROUP BY e.id
		HAVING e.current_vol_count <> COUNT(s.id) OR e.current_vol_count < 0 OR e.current_vol_count > e.max_volunteers
		ORDER BY e.id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count drift: %w", err)
	}
	defer rows.Close()

	var out []CountDrift
	for rows.Next() {
		var d CountDrift
		if err := rows.Scan(&d.EventID, &d.Title, &d.Recorded, &d.Actual, &d.MaxVolunteers); err != nil {
			return nil, fmt.Errorf("scan count drift: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
