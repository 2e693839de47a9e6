package domain

// StatusCodeCount is one row of the response-code aggregation, joined with
// the response-code description mapping table.
type StatusCodeCount struct {
	Code        int    `json:"code"`
	Description string `json:"description,omitempty"`
	Hits        int64  `json:"hits"`
}

// EndpointHits is one row of the per-endpoint hit aggregation.
type EndpointHits struct {
	Endpoint string `json:"endpoint"`
	Hits     int64  `json:"hits"`
}

// CountryTraffic is one row of the per-country traffic aggregation, joined
// with the IP-to-country mapping table. Events whose IP has no mapping are
// grouped under "unknown".
type CountryTraffic struct {
	Country string `json:"country"`
	Hits    int64  `json:"hits"`
	Bytes   int64  `json:"bytes"`
}

// TrafficSummary is the overall shape of the sunk data set. MalformedTotal
// comes from the ingest path's durable counter rather than the sink, since
// malformed lines are never stored.
type TrafficSummary struct {
	Events         int64 `json:"events"`
	DistinctIPs    int64 `json:"distinct_ips"`
	TotalBytes     int64 `json:"total_bytes"`
	MalformedTotal int64 `json:"malformed_total"`
}
