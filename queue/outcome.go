// Package queue runs a batch of independent items through a bounded pool of
// workers and collects one outcome per item.
package queue

// Outcome records what happened to a single item. Failures are data, not
// propagated errors: one bad item never aborts the batch.
type Outcome struct {
	Success bool
	Name    string // output filename for successes, original name for failures
	Err     string // failure detail, empty on success
}

// Succeeded builds a success outcome for the given output name.
func Succeeded(name string) Outcome {
	return Outcome{Success: true, Name: name}
}

// Failed builds a failure outcome carrying the item's name and error detail.
func Failed(name string, err error) Outcome {
	o := Outcome{Success: false, Name: name}
	if err != nil {
		o.Err = err.Error()
	}
	return o
}

// Summary aggregates a batch's outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Successes []Outcome
	Failures  []Outcome
}

// Summarize partitions outcomes into a Summary, preserving input order within
// each partition.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Success {
			s.Succeeded++
			s.Successes = append(s.Successes, o)
		} else {
			s.Failed++
			s.Failures = append(s.Failures, o)
		}
	}
	return s
}
