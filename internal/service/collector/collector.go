// Package collector implements the incremental ingestion pipelines that pull
// data from the external sources into the canonical store.
package collector

// CollectionResult summarizes one collector run. Count is the number of
// items successfully processed; ErrorCount is the number of items or
// resources skipped due to individual failures. Partial failure never fails
// the run as a whole.
type CollectionResult struct {
	Count      int
	ErrorCount int
}

func (r CollectionResult) add(other CollectionResult) CollectionResult {
	return CollectionResult{
		Count:      r.Count + other.Count,
		ErrorCount: r.ErrorCount + other.ErrorCount,
	}
}
