package metrics

import "fmt"

// MaxWarnings caps the warnings returned with a result; the rest are counted.
const MaxWarnings = 50

// Diagnostics collects recoverable anomalies of a run. Duplicates are dropped.
type Diagnostics struct {
	warnings []string
	seen     map[string]struct{}
	dropped  int
}

func (d *Diagnostics) Add(msgs ...string) {
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	for _, m := range msgs {
		if _, dup := d.seen[m]; dup {
			continue
		}
		d.seen[m] = struct{}{}
		if len(d.warnings) >= MaxWarnings {
			d.dropped++
			continue
		}
		d.warnings = append(d.warnings, m)
	}
}

func (d *Diagnostics) Warnf(format string, args ...any) {
	d.Add(fmt.Sprintf(format, args...))
}

// Warnings returns the collected messages, never nil.
func (d *Diagnostics) Warnings() []string {
	out := make([]string, 0, len(d.warnings)+1)
	out = append(out, d.warnings...)
	if d.dropped > 0 {
		out = append(out, fmt.Sprintf("%d more warnings omitted", d.dropped))
	}
	return out
}
