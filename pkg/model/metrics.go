package model

import "time"

// FetchMetrics receives observations from the fetch pipeline.
//
// The interface is defined here (the consumer side) so the fetcher does not
// depend on a metrics backend; pkg/metrics provides the Prometheus
// implementation. A nil FetchMetrics is replaced with a no-op, so metrics
// are always optional.
type FetchMetrics interface {
	// FileDownloaded records one accepted file staged locally.
	FileDownloaded(bytes int)

	// FileSkipped records one file excluded by the extension filter.
	FileSkipped()

	// TreeFetched records the outcome and duration of one version tree
	// fetch.
	TreeFetched(duration time.Duration, success bool)
}

type noopMetrics struct{}

func (noopMetrics) FileDownloaded(int)              {}
func (noopMetrics) FileSkipped()                    {}
func (noopMetrics) TreeFetched(time.Duration, bool) {}
